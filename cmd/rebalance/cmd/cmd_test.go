package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/engine"
	"github.com/rustyeddy/rebalance/planner"
	"github.com/rustyeddy/rebalance/portfolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command. Commands share package state, so these tests
// do not run in parallel.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--log-level", "disabled"))
	err := rootCmd.Execute()
	return out.String(), err
}

// household writes the sample configuration into a temp dir with invested
// holdings.
func household(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := run(t, "config", "init", "-c", dir, "-o", "text")
	require.NoError(t, err)

	require.NoError(t, config.SaveAccounts(config.DefaultPaths(dir).Accounts, []portfolio.Account{
		{ID: "401k", Kind: portfolio.TaxAdvantaged, Cash: 10_000,
			Holdings: map[string]float64{"BND": 50_000, "VTI": 150_000}},
		{ID: "taxable", Kind: portfolio.Taxable, Cash: 5_000,
			Holdings: map[string]float64{"VTI": 350_000, "VXUS": 200_000, "QQQ": 250_000}},
	}))
	return dir
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dir := household(t)
	_, err := run(t, "config", "init", "-c", dir, "-o", "text")
	assert.ErrorContains(t, err, "exists")

	out, err := run(t, "config", "validate", "-c", dir, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configuration valid")
}

func TestPlanJSONIsJournaled(t *testing.T) {
	dir := household(t)
	db := filepath.Join(t.TempDir(), "plans.db")

	out, err := run(t, "plan", "-c", dir, "--journal", db, "-o", "json", "--mode", "conservative")
	require.NoError(t, err)

	var rec engine.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, planner.Conservative, rec.Mode)
	assert.Equal(t, 1_000_000.0, rec.TotalValue)
	assert.NotEmpty(t, rec.Trades)

	out, err = run(t, "journal", "list", "--journal", db, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, rec.RunID)
	assert.Contains(t, out, "conservative")

	out, err = run(t, "journal", "org", rec.RunID, "--journal", db, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      "+rec.RunID)

	out, err = run(t, "journal", "csv", rec.RunID, "--journal", db, "-o", "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "run_id,seq,account_id,ticker,direction,amount,cause,reason\n"))
}

func TestPlanTextExplain(t *testing.T) {
	dir := household(t)
	out, err := run(t, "plan", "-c", dir, "--journal", "", "-o", "text", "--mode", "strict", "--explain")
	require.NoError(t, err)
	assert.Contains(t, out, "Rebalance Recommendation (mode: strict)")
	assert.Contains(t, out, "  |  ")
}

func TestPlanRejectsUnknownMode(t *testing.T) {
	dir := household(t)
	_, err := run(t, "plan", "-c", dir, "--journal", "", "-o", "text", "--mode", "yolo")
	assert.Error(t, err)
	_, err = run(t, "plan", "-c", dir, "-o", "xml", "--mode", "strict")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestJournalRequiresPath(t *testing.T) {
	_, err := run(t, "journal", "list", "--journal", "", "-o", "text")
	assert.ErrorContains(t, err, "no journal configured")
}

func TestDriftAndValidate(t *testing.T) {
	dir := household(t)

	out, err := run(t, "drift", "-c", dir, "-o", "text", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "TICKER")
	assert.Contains(t, out, "BNDX")

	out, err = run(t, "validate", "-c", dir, "-o", "json", "--fail=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"violations"`)
}

func TestStrategyRotateSavesOverrides(t *testing.T) {
	dir := household(t)

	out, err := run(t, "strategy", "rotate", "-c", dir, "-o", "text", "--from", "QQQ", "--to", "AMZN", "--weight", "0.05")
	require.NoError(t, err)
	assert.Contains(t, out, "Rotated 5.00% from QQQ to AMZN")

	ps := config.DefaultPaths(dir)
	overrides, err := config.LoadOverrides(ps.Overrides)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, overrides["QQQ"], 1e-9)
	assert.InDelta(t, 0.05, overrides["AMZN"], 1e-9)

	u, _, err := config.LoadUniverse(ps.Universe)
	require.NoError(t, err)
	_, ok := u.Lookup("AMZN")
	assert.True(t, ok, "new ticker is added to the universe")

	out, err = run(t, "strategy", "show", "-c", dir, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "AMZN")
	assert.Contains(t, out, "Growth cap: 30%")
}

func TestInitWithAccountCash(t *testing.T) {
	dir := household(t)

	out, err := run(t, "init", "-c", dir, "-o", "text",
		"--account-cash", "401k=400000", "--account-cash", "taxable=600,000")
	require.NoError(t, err)
	assert.Contains(t, out, "Initial Portfolio Allocation: $1,000,000")
	assert.Contains(t, out, "  401k: $400,000")

	_, err = run(t, "init", "-c", dir, "-o", "text", "--total", "5", "--account-cash", "401k=1")
	assert.ErrorContains(t, err, "!= --total")
}

func TestParseAccountCash(t *testing.T) {
	got, err := parseAccountCash([]string{"401k=1,000", " taxable = 2.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"401k": 1000, "taxable": 2.5}, got)

	_, err = parseAccountCash([]string{"401k"})
	assert.Error(t, err)
	_, err = parseAccountCash([]string{"=5"})
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "rebalance version "+version+"\n", out)
}
