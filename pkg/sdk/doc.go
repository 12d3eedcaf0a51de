// Package faqdex embeds the faqdex FAQ retrieval cascade in a Go program.
//
// A query is answered by the first tier that clears its threshold: vector
// similarity, then lexical n-gram overlap, then an emergency pass that
// relaxes the bar over the rankings already computed. Every answer reports
// the tier that produced it.
//
//	client, _ := faqdex.New(ctx,
//	    faqdex.WithInMemory(),
//	    faqdex.WithEmbedder(myEmbedder),
//	    faqdex.WithVectorDimensions(384),
//	)
//	defer client.Close()
//
//	_, _ = client.Sync(ctx, []faqdex.FAQ{
//	    {Question: "How do I reset my password?", Answer: "Use the reset link."},
//	}, faqdex.SyncOptions{})
//
//	out := client.Search(ctx, "forgot password", 3)
//	if out.IsMatch() {
//	    fmt.Println(out.Tier, out.Hits[0].Answer)
//	}
package faqdex
