package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/Overclock-Validator/mussel/pkg/fixture"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordTransferFixture(t *testing.T, dir string) *fixture.Fixture {
	t.Helper()

	from := testWallet(100_000_000)
	to := testWallet(100_000_000)

	h := Default().WithFixtureSink(&fixture.FSEjector{Dir: dir})
	instr := sealevel.NewTransferInstruction(from.Key, to.Key, 42_000)

	result, err := h.ProcessInstruction(*instr, []accounts.Account{from, to})
	require.NoError(t, err)
	require.True(t, result.ProgramResult.Succeeded())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fix := new(fixture.Fixture)
	require.NoError(t, fixture.LoadBlob(filepath.Join(dir, entries[0].Name()), fix))
	return fix
}

func TestFixtureSink_CapturesExecution(t *testing.T) {
	dir := t.TempDir()
	fix := recordTransferFixture(t, dir)

	assert.Equal(t, sealevel.SystemProgramAddr, fix.Context.ProgramId)
	assert.Len(t, fix.Context.Accounts, 2)
	assert.Equal(t, uint32(0), fix.Effects.Result)
	assert.Equal(t, uint64(cu.CUSystemProgramDefaultComputeUnits), fix.Effects.ComputeUnitsConsumed)
}

func TestProcessAndValidateFixture_Replays(t *testing.T) {
	fix := recordTransferFixture(t, t.TempDir())

	h := Default()
	result, err := h.ProcessAndValidateFixture(fix)
	require.NoError(t, err)
	assert.True(t, result.ProgramResult.Succeeded())
}

func TestProcessAndValidateFixture_ReportsEveryMismatch(t *testing.T) {
	fix := recordTransferFixture(t, t.TempDir())

	// Corrupt two recorded effects; validation must name both.
	fix.Effects.ComputeUnitsConsumed += 7
	fix.Effects.ResultingAccounts[0].Lamports += 1

	h := Default()
	_, err := h.ProcessAndValidateFixture(fix)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "compute units"))
	assert.True(t, strings.Contains(err.Error(), "lamports"))
}

func TestProcessAndPartiallyValidateFixture_SkipsUncheckedFields(t *testing.T) {
	fix := recordTransferFixture(t, t.TempDir())
	fix.Effects.ComputeUnitsConsumed += 7

	h := Default()
	_, err := h.ProcessAndPartiallyValidateFixture(fix, FixtureCheckResult, FixtureCheckResultingAccounts)
	assert.NoError(t, err)

	_, err = h.ProcessAndPartiallyValidateFixture(fix, FixtureCheckComputeUnits)
	assert.Error(t, err)
}

func TestProcessFiredancerFixture_RoundTrip(t *testing.T) {
	fix := recordTransferFixture(t, t.TempDir())
	fd := fix.Firedancer()

	h := Default()
	result, err := h.ProcessAndValidateFiredancerFixture(fd)
	require.NoError(t, err)
	assert.True(t, result.ProgramResult.Succeeded())
}
