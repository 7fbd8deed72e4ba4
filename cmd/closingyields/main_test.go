package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldcli/internal/infrastructure"
	"yieldcli/internal/shared/testutil"
)

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer
	o, err := parseFlags([]string{"-date", "2026-03-10", "-force", "-out", "x.csv"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", o.date)
	assert.True(t, o.force)
	assert.Equal(t, "x.csv", o.out)

	_, err = parseFlags([]string{"-h"}, &out)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "-schedule")

	_, err = parseFlags([]string{"extra"}, &out)
	assert.Error(t, err)
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &out))
	assert.Contains(t, out.String(), "closingyields v")
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`paths:
  base_dir: %q
logging:
  output: console
  level: error
retry:
  max_attempts: 1
output:
  status_report: true
`, dir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_OnceWithExplicitFiles(t *testing.T) {
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	dir := t.TempDir()
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "9.00").
		Exchange(
			testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030", Deals: "2", Nominal: "3,000,000", Spread: "40"},
			testutil.ExchangeRow{Security: "GI25", Deals: "0", Nominal: "0"},
		).
		LinkedDealer("GI25", "4.50", "2026-03-10").
		NominalDealer("GC30", "30", "2026-03-02").
		Build()
	files := testutil.WriteSourceFiles(t, dir, src)
	out := filepath.Join(dir, "result.csv")

	err := run(context.Background(), []string{
		"-config", writeConfig(t, dir),
		"-reference", files.Reference,
		"-exchange", files.Exchange,
		"-dealer", files.Dealer,
		"-out", out,
		"-date", "2026-03-10",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "GC30,R2030,9.0000,40.0000,9.4000,Exchange Spread: 40 bps")
	assert.Contains(t, string(data), "GI25,,,,4.5000,Dealer Data (Today's Date)")
	assert.FileExists(t, filepath.Join(dir, "data", "reports", "status_20260310.txt"))
}

func TestRun_HolidayIsNotAnError(t *testing.T) {
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	dir := t.TempDir()
	out := filepath.Join(dir, "result.csv")

	// Youth Day; inputs are never read
	err := run(context.Background(), []string{
		"-config", writeConfig(t, dir),
		"-out", out,
		"-date", "2026-06-16",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NoFileExists(t, out)
}

func TestRun_MissingInputsFail(t *testing.T) {
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	dir := t.TempDir()

	err := run(context.Background(), []string{
		"-config", writeConfig(t, dir),
		"-date", "2026-03-10",
	}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_InvalidDate(t *testing.T) {
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	dir := t.TempDir()

	err := run(context.Background(), []string{"-config", writeConfig(t, dir), "-date", "10/03/2026"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid -date")
}
