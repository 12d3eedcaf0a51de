package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/faqdex/internal/domain"
	dombatch "github.com/kailas-cloud/faqdex/internal/domain/batch"
	"github.com/kailas-cloud/faqdex/internal/usecase/ingest"
)

func init() {
	color.NoColor = true
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &out
	err := a.Run(append([]string{"faqsync"}, args...))
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, "faqs.json", `{"faqs":[{"question":"Q?","answer":"A."},{"id":"b","question":"Q2?","answer":"A2."}]}`)

		out, err := runApp(t, "validate", "--file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "valid")
		assert.Contains(t, out, "2 FAQs")
	})

	t.Run("schema violation", func(t *testing.T) {
		path := writeFile(t, "faqs.json", `{"faqs":[{"question":"Q?"}]}`)

		out, err := runApp(t, "validate", "--file", path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidEntry))
		assert.Contains(t, out, "invalid")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := runApp(t, "validate", "--file", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}

func TestSyncCommandFlags(t *testing.T) {
	a := newApp()
	var sync *cli.Command
	for _, c := range a.Commands {
		if c.Name == "sync" {
			sync = c
		}
	}
	require.NotNil(t, sync)

	names := map[string]bool{}
	for _, f := range sync.Flags {
		names[f.Names()[0]] = true
	}
	for _, want := range []string{"file", "force", "dry-run", "prune", "watch"} {
		assert.True(t, names[want], "missing flag %s", want)
	}
}

func TestSyncCommand_BadConfig(t *testing.T) {
	cfgPath := writeFile(t, "bad.yaml", "http:\n  port: 0\n")

	_, err := runApp(t, "--config", cfgPath, "sync", "--file", "faqs.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.port")
}

func TestPrintReport(t *testing.T) {
	r := ingest.Report{Results: []dombatch.Result{
		dombatch.Upserted("a"),
		dombatch.Unchanged("b"),
		dombatch.Failed("c", errors.New("boom")),
		dombatch.Pruned("d"),
	}}

	var buf bytes.Buffer
	printReport(&buf, "faqs.json", r)
	out := buf.String()

	assert.Contains(t, out, "Synced faqs.json")
	assert.Contains(t, out, "upsert  a")
	assert.NotContains(t, out, " b\n")
	assert.Contains(t, out, "error   c: boom")
	assert.Contains(t, out, "delete  d")
	assert.Contains(t, out, "1 upserted, 1 unchanged, 1 deleted, 1 failed")
}

func TestPrintReport_DryRun(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, "faqs.json", ingest.Report{DryRun: true})
	assert.Contains(t, buf.String(), "(dry run)")
}

func TestReindexCommand_RequiresConfirmation(t *testing.T) {
	_, err := runApp(t, "reindex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
