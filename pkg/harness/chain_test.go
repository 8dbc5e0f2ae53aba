package harness

import (
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessInstructionChain_TransfersAccumulate(t *testing.T) {
	alice := testWallet(100_000_000)
	bob := testWallet(100_000_000)
	carol := testWallet(100_000_000)

	h := Default()
	instrs := []sealevel.Instruction{
		*sealevel.NewTransferInstruction(alice.Key, bob.Key, 10_000),
		*sealevel.NewTransferInstruction(bob.Key, carol.Key, 20_000),
		*sealevel.NewTransferInstruction(carol.Key, alice.Key, 30_000),
		*sealevel.NewTransferInstruction(alice.Key, carol.Key, 5_000),
	}

	result, err := h.ProcessInstructionChain(instrs, []accounts.Account{alice, bob, carol})
	require.NoError(t, err)
	require.True(t, result.ProgramResult.Succeeded(), "unexpected result: %s", result.ProgramResult.Err)

	assert.Equal(t, uint64(4*cu.CUSystemProgramDefaultComputeUnits), result.ComputeUnitsConsumed)
	assert.Equal(t, uint64(100_000_000-10_000+30_000-5_000), result.AccountByKey(alice.Key).Lamports)
	assert.Equal(t, uint64(100_000_000+10_000-20_000), result.AccountByKey(bob.Key).Lamports)
	assert.Equal(t, uint64(100_000_000+20_000-30_000+5_000), result.AccountByKey(carol.Key).Lamports)
}

func TestProcessInstructionChain_MatchesManualFold(t *testing.T) {
	alice := testWallet(100_000_000)
	bob := testWallet(100_000_000)
	carol := testWallet(100_000_000)

	h := Default()
	instrs := []sealevel.Instruction{
		*sealevel.NewTransferInstruction(alice.Key, bob.Key, 7_000),
		*sealevel.NewTransferInstruction(bob.Key, carol.Key, 3_000),
		*sealevel.NewTransferInstruction(carol.Key, alice.Key, 1_000),
	}

	chained, err := h.ProcessInstructionChain(instrs, []accounts.Account{alice, bob, carol})
	require.NoError(t, err)
	require.True(t, chained.ProgramResult.Succeeded())

	// Fold the same sequence by hand: feed each step the previous step's
	// resulting accounts.
	current := []accounts.Account{alice, bob, carol}
	var totalUnits uint64
	for _, instr := range instrs {
		stepResult, err := h.ProcessInstruction(instr, current)
		require.NoError(t, err)
		require.True(t, stepResult.ProgramResult.Succeeded())
		totalUnits += stepResult.ComputeUnitsConsumed
		current = stepResult.ResultingAccounts
	}

	assert.Equal(t, totalUnits, chained.ComputeUnitsConsumed)
	require.Len(t, current, len(chained.ResultingAccounts))
	for _, folded := range current {
		acct := chained.AccountByKey(folded.Key)
		require.NotNil(t, acct)
		assert.Equal(t, folded.Lamports, acct.Lamports)
		assert.Equal(t, folded.Data, acct.Data)
		assert.Equal(t, folded.Owner, acct.Owner)
	}
}

func TestProcessInstructionChain_StopsAtFailingStep(t *testing.T) {
	alice := testWallet(50_000)
	bob := testWallet(0)

	h := Default()
	instrs := []sealevel.Instruction{
		*sealevel.NewTransferInstruction(alice.Key, bob.Key, 40_000),
		// Overdraws what is left; the chain must stop here.
		*sealevel.NewTransferInstruction(alice.Key, bob.Key, 40_000),
		*sealevel.NewTransferInstruction(bob.Key, alice.Key, 1_000),
	}

	result, err := h.ProcessInstructionChain(instrs, []accounts.Account{alice, bob})
	require.NoError(t, err)
	assert.Equal(t, ProgramResultFailure, result.ProgramResult.Kind)

	// Only the first two steps consumed compute units.
	assert.Equal(t, uint64(2*cu.CUSystemProgramDefaultComputeUnits), result.ComputeUnitsConsumed)

	// The first transfer committed, the failing one did not.
	assert.Equal(t, uint64(10_000), result.AccountByKey(alice.Key).Lamports)
	assert.Equal(t, uint64(40_000), result.AccountByKey(bob.Key).Lamports)
}

func TestProcessAndValidateInstructionChain_PerStepChecks(t *testing.T) {
	alice := testWallet(100_000_000)
	bob := testWallet(100_000_000)

	h := Default()
	steps := []ChainStep{
		{
			Instruction: *sealevel.NewTransferInstruction(alice.Key, bob.Key, 1_000),
			Checks:      []Check{CheckSuccess(), CheckAccountLamports(bob.Key, 100_001_000)},
		},
		{
			Instruction: *sealevel.NewTransferInstruction(bob.Key, alice.Key, 500),
			Checks:      []Check{CheckSuccess(), CheckAccountLamports(bob.Key, 100_000_500)},
		},
	}

	assert.NotPanics(t, func() {
		result, err := h.ProcessAndValidateInstructionChain(steps, []accounts.Account{alice, bob})
		require.NoError(t, err)
		assert.Equal(t, uint64(100_000_500), result.AccountByKey(bob.Key).Lamports)
	})
}
