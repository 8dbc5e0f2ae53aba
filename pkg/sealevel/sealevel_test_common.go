package sealevel

import (
	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/Overclock-Validator/mussel/pkg/features"
	"github.com/Overclock-Validator/mussel/pkg/sysvars"
)

func instructionAcctsFromAccountMetas(instrAcctMetas []AccountMeta, txAccounts *TransactionAccounts) []InstructionAccount {
	var instrAccts []InstructionAccount

	for instrAcctIdx, accountMeta := range instrAcctMetas {
		idxInTx := -1
		for pos, acct := range txAccounts.Accounts {
			if acct.Key == accountMeta.Pubkey {
				idxInTx = pos
			}
		}
		if idxInTx == -1 {
			idxInTx = len(txAccounts.Accounts)
		}

		idxInCallee := -1
		for pos, instrAcct := range instrAccts[:instrAcctIdx] {
			if instrAcct.IndexInTransaction == uint64(idxInTx) {
				idxInCallee = pos
			}
		}
		if idxInCallee == -1 {
			idxInCallee = instrAcctIdx
		}

		instrAccts = append(instrAccts, InstructionAccount{
			IndexInTransaction: uint64(idxInTx),
			IndexInCaller:      uint64(idxInTx),
			IndexInCallee:      uint64(idxInCallee),
			IsSigner:           accountMeta.IsSigner,
			IsWritable:         accountMeta.IsWritable,
		})
	}

	return instrAccts
}

func newTestExecCtx(accts []accounts.Account, computeBudget uint64) *ExecutionCtx {
	transactionAccts := NewTransactionAccounts(accts)
	txCtx := NewTransactionCtx(transactionAccts, 5, 64)

	return &ExecutionCtx{
		Log:                new(LogRecorder),
		TransactionContext: txCtx,
		ComputeMeter:       cu.NewComputeMeter(computeBudget),
		Features:           features.NewFeaturesDefault(),
		Sysvars:            sysvars.NewSysvarsDefault(),
		Registry:           NewProgramRegistry(),
	}
}
