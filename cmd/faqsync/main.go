package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/app"
	"github.com/kailas-cloud/faqdex/internal/config"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
	"github.com/kailas-cloud/faqdex/internal/repository/seedfile"
	"github.com/kailas-cloud/faqdex/internal/usecase/ingest"
	"github.com/kailas-cloud/faqdex/internal/version"
)

var (
	okText      = color.New(color.FgGreen).SprintFunc()
	skippedText = color.New(color.FgYellow).SprintFunc()
	failedText  = color.New(color.FgRed).SprintFunc()
	headerText  = color.New(color.Bold).SprintFunc()
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	fileFlag := &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Path to the FAQ seed file (JSON); defaults to corpus.seed_file",
	}
	return &cli.App{
		Name:    "faqsync",
		Usage:   "Load FAQ seed files into the faqdex vector store",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file; defaults to config/$ENV.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Embed and upsert every FAQ in the seed file",
				Action: syncCommand,
				Flags: []cli.Flag{
					fileFlag,
					&cli.BoolFlag{Name: "force", Usage: "Re-embed entries whose text is unchanged"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Print the plan without writing"},
					&cli.BoolFlag{Name: "prune", Usage: "Delete stored FAQs missing from the file"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep running and re-sync when the file changes"},
				},
			},
			{
				Name:   "validate",
				Usage:  "Check a seed file against the schema without touching the store",
				Action: validateCommand,
				Flags:  []cli.Flag{fileFlag},
			},
			{
				Name:   "reindex",
				Usage:  "Drop the index and stored FAQs, recreate it for the configured dimensions, then re-sync",
				Action: reindexCommand,
				Flags: []cli.Flag{
					fileFlag,
					&cli.BoolFlag{Name: "yes", Usage: "Confirm that every stored FAQ will be deleted"},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print the number of stored FAQs",
				Action: statsCommand,
			},
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFile(path) //nolint:wrapcheck // already descriptive
	}
	return config.Load(config.GetEnv()) //nolint:wrapcheck // already descriptive
}

// openApp loads config, builds the logger and assembles the service graph.
func openApp(c *cli.Context) (*app.App, config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	level := cfg.Logging.Level
	if l := c.String("log-level"); l != "" {
		level = l
	}
	logger, err := logpkg.New(config.GetEnv(), logpkg.Options{Level: level, Format: cfg.Logging.Format, Service: "faqsync"})
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	a, err := app.New(logpkg.NewContext(c.Context, logger), cfg, logger, app.WithoutStoreFallback())
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("assemble services: %w", err)
	}
	return a, cfg, logger, nil
}

func seedPath(c *cli.Context, cfg config.Config) (string, error) {
	if p := c.String("file"); p != "" {
		return p, nil
	}
	if cfg.Corpus.SeedFile != "" {
		return cfg.Corpus.SeedFile, nil
	}
	return "", errors.New("seed file is required: pass --file or set corpus.seed_file")
}

func syncCommand(c *cli.Context) error {
	a, cfg, logger, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()
	defer func() { _ = logger.Sync() }()

	path, err := seedPath(c, cfg)
	if err != nil {
		return err
	}
	opts := ingest.Options{
		Force:  c.Bool("force"),
		DryRun: c.Bool("dry-run"),
		Prune:  c.Bool("prune"),
	}

	ctx, stop := signal.NotifyContext(logpkg.NewContext(c.Context, logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.ProbeDimensions(ctx); err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}

	run := func(ctx context.Context) error {
		report, err := a.SyncSeedFile(ctx, path, opts)
		if err != nil {
			return err
		}
		printReport(c.App.Writer, path, report)
		return report.Err()
	}

	if !c.Bool("watch") {
		return run(ctx)
	}

	if err := run(ctx); err != nil {
		logger.Warn("Initial sync finished with errors", zap.Error(err))
	}
	fmt.Fprintf(c.App.Writer, "Watching %s for changes (Ctrl+C to stop)\n", path)
	w := seedfile.NewWatcher(path, seedfile.DefaultDebounce, logger)
	err = w.Run(ctx, func(ctx context.Context) {
		if err := run(ctx); err != nil {
			logger.Warn("Sync finished with errors", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return nil
}

func validateCommand(c *cli.Context) error {
	path := c.String("file")
	if path == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if path, err = seedPath(c, cfg); err != nil {
			return err
		}
	}

	entries, err := seedfile.New(path).List(c.Context)
	if err != nil {
		fmt.Fprintf(c.App.Writer, "%s %s\n", failedText("invalid"), path)
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "%s %s: %d FAQs\n", okText("valid"), path, len(entries))
	return nil
}

func reindexCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return errors.New("reindex deletes every stored FAQ; pass --yes to confirm")
	}
	a, cfg, logger, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()
	defer func() { _ = logger.Sync() }()

	ctx := logpkg.NewContext(c.Context, logger)
	if err := a.ProbeDimensions(ctx); err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}

	removed, err := a.Repo.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s %s%s for %d dimensions, %s FAQs removed\n",
		okText("recreated"), cfg.Storage.KeyPrefix, cfg.Index.Name, cfg.Embedding.Dimensions, failedText(removed))

	path, err := seedPath(c, cfg)
	if err != nil {
		fmt.Fprintln(c.App.Writer, "No seed file given; run faqsync sync to repopulate")
		return nil //nolint:nilerr // nothing to re-sync
	}
	report, err := a.SyncSeedFile(ctx, path, ingest.Options{Force: true})
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	printReport(c.App.Writer, path, report)
	return report.Err() //nolint:wrapcheck // already descriptive
}

func statsCommand(c *cli.Context) error {
	a, cfg, logger, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()
	defer func() { _ = logger.Sync() }()

	n, err := a.Repo.Count(c.Context)
	if err != nil {
		return fmt.Errorf("count faqs: %w", err)
	}
	fmt.Fprintln(c.App.Writer, headerText("faqdex store"))
	fmt.Fprintf(c.App.Writer, "  driver:     %s\n", cfg.Database.Driver)
	fmt.Fprintf(c.App.Writer, "  index:      %s%s\n", cfg.Storage.KeyPrefix, cfg.Index.Name)
	fmt.Fprintf(c.App.Writer, "  model:      %s (%d dims)\n", cfg.Embedding.Model, cfg.Embedding.Dimensions)
	fmt.Fprintf(c.App.Writer, "  faqs:       %d\n", n)
	return nil
}

func printReport(w io.Writer, path string, r ingest.Report) {
	title := "Synced " + path
	if r.DryRun {
		title = "Plan for " + path + " (dry run)"
	}
	fmt.Fprintln(w, headerText(title))

	for _, res := range r.Results {
		switch res.Status() {
		case dombatch.StatusUpserted:
			fmt.Fprintf(w, "  %s %s\n", okText("upsert "), res.ID())
		case dombatch.StatusPruned:
			fmt.Fprintf(w, "  %s %s\n", failedText("delete "), res.ID())
		case dombatch.StatusFailed:
			fmt.Fprintf(w, "  %s %s: %v\n", failedText("error  "), res.ID(), res.Err())
		}
	}

	t := dombatch.Summarize(r.Results)
	fmt.Fprintf(w, "%s upserted, %s unchanged, %s deleted, %s failed\n",
		okText(t.Upserted), skippedText(t.Unchanged), failedText(t.Pruned), failedText(t.Failed))
}
