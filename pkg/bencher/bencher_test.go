package bencher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/harness"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferBench(t *testing.T, name string, lamports uint64) Bench {
	t.Helper()

	fromKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	toKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	from := accounts.Account{Key: fromKey.PublicKey(), Lamports: 100_000_000, Owner: sealevel.SystemProgramAddr}
	to := accounts.Account{Key: toKey.PublicKey(), Lamports: 100_000_000, Owner: sealevel.SystemProgramAddr}

	return Bench{
		Name:        name,
		Instruction: *sealevel.NewTransferInstruction(from.Key, to.Key, lamports),
		Accounts:    []accounts.Account{from, to},
	}
}

func TestBencher_WritesReport(t *testing.T) {
	dir := t.TempDir()

	err := New(harness.Default()).
		Bench(transferBench(t, "transfer", 42_000)).
		Bench(transferBench(t, "transfer_large", 90_000_000)).
		MustPass().
		Iterations(4).
		OutDir(dir).
		Execute()
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(dir, "compute_units.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| transfer | 150 | - new - |")
	assert.Contains(t, string(md), "| transfer_large | 150 | - new - |")

	raw, err := os.ReadFile(filepath.Join(dir, "compute_units.json"))
	require.NoError(t, err)
	var entries []Measurement
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(150), entries[0].ComputeUnits)
}

func TestBencher_UnchangedRunDoesNotGrowReport(t *testing.T) {
	dir := t.TempDir()
	h := harness.Default()
	bench := transferBench(t, "transfer", 42_000)

	require.NoError(t, New(h).Bench(bench).OutDir(dir).Execute())
	require.NoError(t, New(h).Bench(bench).OutDir(dir).Execute())

	md, err := os.ReadFile(filepath.Join(dir, "compute_units.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(md), "#### Compute Units:"))
}

func TestBencher_MustPassRejectsFailingBench(t *testing.T) {
	dir := t.TempDir()

	// Overdraws the source account on purpose.
	bench := transferBench(t, "overdraw", 0)
	bench.Instruction = *sealevel.NewTransferInstruction(bench.Accounts[0].Key, bench.Accounts[1].Key, 200_000_000)

	err := New(harness.Default()).Bench(bench).MustPass().OutDir(dir).Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overdraw")
}

func TestBencher_NoBenches(t *testing.T) {
	err := New(harness.Default()).Execute()
	assert.Error(t, err)
}
