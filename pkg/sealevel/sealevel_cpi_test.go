package sealevel

import (
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cpiTestAccounts(t *testing.T) (accounts.Account, accounts.Account) {
	t.Helper()

	fromKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	toKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	from := accounts.Account{Key: fromKey.PublicKey(), Lamports: 10_000_000, Owner: SystemProgramAddr}
	to := accounts.Account{Key: toKey.PublicKey(), Lamports: 0, Owner: SystemProgramAddr}
	return from, to
}

func TestExecutionCtx_NativeInvoke_SystemTransfer(t *testing.T) {
	invokerId := solana.MustPublicKeyFromBase58("Cpi1nvoker111111111111111111111111111111111")
	from, to := cpiTestAccounts(t)

	invokerAcct := accounts.Account{Key: invokerId, Lamports: 1, Owner: NativeLoaderAddr, Executable: true}
	systemAcct := accounts.Account{Key: SystemProgramAddr, Lamports: 1, Owner: NativeLoaderAddr, Executable: true}

	txAccts := []accounts.Account{invokerAcct, from, to, systemAcct}
	execCtx := newTestExecCtx(txAccts, 10_000)

	execCtx.Registry.RegisterBuiltin(invokerId, func(ctx *ExecutionCtx) error {
		return ctx.NativeInvoke(*NewTransferInstruction(from.Key, to.Key, 5_000), nil)
	})

	instrAcctMetas := []AccountMeta{
		NewAccountMeta(from.Key, true, true),
		NewAccountMeta(to.Key, false, true),
		NewAccountMeta(SystemProgramAddr, false, false),
	}
	instrAccts := instructionAcctsFromAccountMetas(instrAcctMetas, execCtx.TransactionContext.Accounts)

	err := execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
	require.NoError(t, err)

	fromAfter, err := execCtx.TransactionContext.Accounts.GetAccount(1)
	require.NoError(t, err)
	toAfter, err := execCtx.TransactionContext.Accounts.GetAccount(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000-5_000), fromAfter.Lamports)
	assert.Equal(t, uint64(5_000), toAfter.Lamports)

	// The inner system instruction consumed its fixed baseline.
	assert.Equal(t, uint64(cu.CUSystemProgramDefaultComputeUnits), execCtx.ComputeMeter.Used())
}

func TestExecutionCtx_NativeInvoke_PrivilegeEscalationRejected(t *testing.T) {
	invokerId := solana.MustPublicKeyFromBase58("Cpi1nvoker111111111111111111111111111111111")
	from, to := cpiTestAccounts(t)

	invokerAcct := accounts.Account{Key: invokerId, Lamports: 1, Owner: NativeLoaderAddr, Executable: true}
	systemAcct := accounts.Account{Key: SystemProgramAddr, Lamports: 1, Owner: NativeLoaderAddr, Executable: true}

	txAccts := []accounts.Account{invokerAcct, from, to, systemAcct}
	execCtx := newTestExecCtx(txAccts, 10_000)

	execCtx.Registry.RegisterBuiltin(invokerId, func(ctx *ExecutionCtx) error {
		return ctx.NativeInvoke(*NewTransferInstruction(from.Key, to.Key, 5_000), nil)
	})

	// The caller only holds the source account read-only; the transfer's
	// writable request must be rejected.
	instrAcctMetas := []AccountMeta{
		NewAccountMeta(from.Key, true, false),
		NewAccountMeta(to.Key, false, true),
		NewAccountMeta(SystemProgramAddr, false, false),
	}
	instrAccts := instructionAcctsFromAccountMetas(instrAcctMetas, execCtx.TransactionContext.Accounts)

	err := execCtx.ProcessInstruction(nil, instrAccts, []uint64{0})
	require.ErrorIs(t, err, InstrErrPrivilegeEscalation)
}
