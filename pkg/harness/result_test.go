package harness

import (
	"testing"
	"time"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionResult_Absorb(t *testing.T) {
	keyA := testWallet(0).Key
	keyB := testWallet(0).Key

	first := InstructionResult{
		ComputeUnitsConsumed: 150,
		ExecutionTime:        time.Microsecond,
		ProgramResult:        ProgramResult{Kind: ProgramResultSuccess},
		Logs:                 []string{"one"},
		ResultingAccounts: []accounts.Account{
			{Key: keyA, Lamports: 10},
			{Key: keyB, Lamports: 20},
		},
	}
	second := InstructionResult{
		ComputeUnitsConsumed: 200,
		ExecutionTime:        time.Microsecond,
		ProgramResult:        ProgramResult{Kind: ProgramResultFailure, Err: sealevel.InstrErrInvalidArgument},
		ReturnData:           []byte{1, 2, 3},
		Logs:                 []string{"two"},
		ResultingAccounts: []accounts.Account{
			{Key: keyB, Lamports: 99},
		},
	}

	first.Absorb(second)

	assert.Equal(t, uint64(350), first.ComputeUnitsConsumed)
	assert.Equal(t, 2*time.Microsecond, first.ExecutionTime)
	assert.Equal(t, ProgramResultFailure, first.ProgramResult.Kind)
	assert.Equal(t, []byte{1, 2, 3}, first.ReturnData)
	assert.Equal(t, []string{"one", "two"}, first.Logs)

	require.Len(t, first.ResultingAccounts, 2)
	assert.Equal(t, uint64(10), first.AccountByKey(keyA).Lamports)
	assert.Equal(t, uint64(99), first.AccountByKey(keyB).Lamports)
}

func TestInstructionResult_Compare(t *testing.T) {
	key := testWallet(0).Key
	base := InstructionResult{
		ComputeUnitsConsumed: 150,
		ProgramResult:        ProgramResult{Kind: ProgramResultSuccess},
		ResultingAccounts:    []accounts.Account{{Key: key, Lamports: 10}},
	}

	same := base
	same.ResultingAccounts = []accounts.Account{{Key: key, Lamports: 10}}
	same.ExecutionTime = time.Second // never compared
	assert.NoError(t, base.Compare(&same))

	diverged := same
	diverged.ResultingAccounts = []accounts.Account{{Key: key, Lamports: 11}}
	assert.Error(t, base.Compare(&diverged))

	wrongCU := same
	wrongCU.ComputeUnitsConsumed = 151
	assert.Error(t, base.Compare(&wrongCU))
}

func TestProgramResult_ErrCode(t *testing.T) {
	success := ProgramResult{Kind: ProgramResultSuccess}
	code, custom := success.ErrCode()
	assert.Equal(t, uint32(0), code)
	assert.Equal(t, uint32(0), custom)

	failure := ProgramResult{Kind: ProgramResultFailure, Err: sealevel.SystemProgErrResultWithNegativeLamports}
	code, custom = failure.ErrCode()
	assert.Equal(t, uint32(sealevel.InstrErrCodeCustom), code)
	assert.Equal(t, uint32(1), custom)
}
