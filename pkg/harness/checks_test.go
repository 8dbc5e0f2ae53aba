package harness

import (
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessAndValidateInstruction_AllChecksPass(t *testing.T) {
	from := testWallet(100_000_000)
	to := testWallet(100_000_000)

	h := Default()
	instr := sealevel.NewTransferInstruction(from.Key, to.Key, 42_000)

	assert.NotPanics(t, func() {
		_, err := h.ProcessAndValidateInstruction(*instr, []accounts.Account{from, to},
			CheckSuccess(),
			CheckComputeUnits(cu.CUSystemProgramDefaultComputeUnits),
			CheckAccountLamports(from.Key, 100_000_000-42_000),
			CheckAccountLamports(to.Key, 100_000_000+42_000),
			CheckAccountOwner(from.Key, sealevel.SystemProgramAddr),
		)
		require.NoError(t, err)
	})
}

func TestProcessAndValidateInstruction_AggregatesFailures(t *testing.T) {
	from := testWallet(100_000_000)
	to := testWallet(100_000_000)

	h := Default()
	instr := sealevel.NewTransferInstruction(from.Key, to.Key, 42_000)

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered, "expected mismatching checks to panic")
		diagnostic, ok := recovered.(string)
		require.True(t, ok)
		// Both failing checks appear in the single panic.
		assert.Contains(t, diagnostic, "2 instruction check(s) failed")
		assert.Contains(t, diagnostic, "compute units")
		assert.Contains(t, diagnostic, "lamports")
	}()

	_, _ = h.ProcessAndValidateInstruction(*instr, []accounts.Account{from, to},
		CheckSuccess(),
		CheckComputeUnits(999),
		CheckAccountLamports(to.Key, 1),
	)
}

func TestCheckErr_MatchesByCode(t *testing.T) {
	from := testWallet(100)
	to := testWallet(100)

	h := Default()
	instr := sealevel.NewTransferInstruction(from.Key, to.Key, 42_000)

	assert.NotPanics(t, func() {
		_, err := h.ProcessAndValidateInstruction(*instr, []accounts.Account{from, to},
			CheckErr(sealevel.SystemProgErrResultWithNegativeLamports),
		)
		require.NoError(t, err)
	})
}

func TestCheckAccountClosed(t *testing.T) {
	result := InstructionResult{
		ProgramResult:     ProgramResult{Kind: ProgramResultSuccess},
		ResultingAccounts: []accounts.Account{{Key: testWallet(0).Key}},
	}
	h := Default()

	check := CheckAccountClosed(result.ResultingAccounts[0].Key)
	assert.NoError(t, check(h, &result))

	result.ResultingAccounts[0].Lamports = 5
	assert.Error(t, check(h, &result))
}

func TestCheckAllRentExempt(t *testing.T) {
	h := Default()
	key := testWallet(0).Key

	exempt := h.Sysvars.Rent.MinimumBalance(100)
	result := InstructionResult{
		ResultingAccounts: []accounts.Account{{Key: key, Lamports: exempt, Data: make([]byte, 100)}},
	}
	assert.NoError(t, CheckAllRentExempt()(h, &result))

	result.ResultingAccounts[0].Lamports = exempt - 1
	assert.Error(t, CheckAllRentExempt()(h, &result))
}

func TestCheckLogContains(t *testing.T) {
	h := Default()
	result := InstructionResult{Logs: []string{"Program log: hello", "Program log: done"}}

	assert.NoError(t, CheckLogContains("hello")(h, &result))
	assert.Error(t, CheckLogContains("absent")(h, &result))
}
