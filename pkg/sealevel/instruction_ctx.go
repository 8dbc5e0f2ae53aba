package sealevel

import (
	"github.com/Overclock-Validator/mussel/pkg/safemath"
	"github.com/gagliardetto/solana-go"
)

// InstructionCtx is one level of the instruction stack: the program
// account(s), the deduplicated instruction accounts and the data.
type InstructionCtx struct {
	programAccounts     []uint64
	instructionAccounts []InstructionAccount
	Data                []byte
	nestingHeight       uint64
}

func (instrCtx *InstructionCtx) Configure(programAccounts []uint64, instructionAccounts []InstructionAccount, data []byte) {
	instrCtx.programAccounts = programAccounts
	instrCtx.instructionAccounts = instructionAccounts
	instrCtx.Data = data
}

func (instrCtx *InstructionCtx) StackHeight() uint64 {
	return instrCtx.nestingHeight + 1
}

func (instrCtx *InstructionCtx) NumberOfProgramAccounts() uint64 {
	return uint64(len(instrCtx.programAccounts))
}

func (instrCtx *InstructionCtx) NumberOfInstructionAccounts() uint64 {
	return uint64(len(instrCtx.instructionAccounts))
}

func (instrCtx *InstructionCtx) CheckNumOfInstructionAccounts(expected uint64) error {
	if instrCtx.NumberOfInstructionAccounts() < expected {
		return InstrErrNotEnoughAccountKeys
	}
	return nil
}

func (instrCtx *InstructionCtx) IndexOfProgramAccountInTransaction(programAccountIndex uint64) (uint64, error) {
	if programAccountIndex >= uint64(len(instrCtx.programAccounts)) {
		return 0, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.programAccounts[programAccountIndex], nil
}

func (instrCtx *InstructionCtx) IndexOfInstructionAccountInTransaction(instrAcctIdx uint64) (uint64, error) {
	if instrAcctIdx >= uint64(len(instrCtx.instructionAccounts)) {
		return 0, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.instructionAccounts[instrAcctIdx].IndexInTransaction, nil
}

func (instrCtx *InstructionCtx) IndexOfInstructionAccount(txCtx *TransactionCtx, pubkey solana.PublicKey) (uint64, error) {
	for idx, instrAcct := range instrCtx.instructionAccounts {
		key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
		if err != nil {
			return 0, err
		}
		if key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (instrCtx *InstructionCtx) IsInstructionAccountSigner(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= uint64(len(instrCtx.instructionAccounts)) {
		return false, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.instructionAccounts[instrAcctIdx].IsSigner, nil
}

func (instrCtx *InstructionCtx) IsInstructionAccountWritable(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= uint64(len(instrCtx.instructionAccounts)) {
		return false, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.instructionAccounts[instrAcctIdx].IsWritable, nil
}

// IsInstructionAccountDuplicate reports whether the account at the given
// index is a repeat of an earlier instruction account, and if so at which
// index the original appears.
func (instrCtx *InstructionCtx) IsInstructionAccountDuplicate(instrAcctIdx uint64) (bool, uint64, error) {
	if instrAcctIdx >= uint64(len(instrCtx.instructionAccounts)) {
		return false, 0, InstrErrNotEnoughAccountKeys
	}
	idxInCallee := instrCtx.instructionAccounts[instrAcctIdx].IndexInCallee
	return idxInCallee != instrAcctIdx, idxInCallee, nil
}

// Signers collects the keys of every instruction account marked as signer.
func (instrCtx *InstructionCtx) Signers(txCtx *TransactionCtx) ([]solana.PublicKey, error) {
	var signers []solana.PublicKey
	for _, instrAcct := range instrCtx.instructionAccounts {
		if instrAcct.IsSigner {
			key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
			if err != nil {
				return nil, err
			}
			signers = append(signers, key)
		}
	}
	return signers, nil
}

func (instrCtx *InstructionCtx) ProgramId(txCtx *TransactionCtx) (solana.PublicKey, error) {
	return instrCtx.LastProgramKey(txCtx)
}

func (instrCtx *InstructionCtx) LastProgramKey(txCtx *TransactionCtx) (solana.PublicKey, error) {
	programAccountIndex := safemath.SaturatingSubU64(instrCtx.NumberOfProgramAccounts(), 1)

	index, err := instrCtx.IndexOfProgramAccountInTransaction(programAccountIndex)
	if err != nil {
		return solana.PublicKey{}, err
	}

	return txCtx.KeyOfAccountAtIndex(index)
}

func (instrCtx *InstructionCtx) borrowAccount(txCtx *TransactionCtx, indexInTx uint64, indexInInstruction uint64) (*BorrowedAccount, error) {
	acct, err := txCtx.Accounts.GetAccount(indexInTx)
	if err != nil {
		return nil, err
	}
	if err = txCtx.Accounts.Borrow(indexInTx); err != nil {
		return nil, err
	}
	return &BorrowedAccount{
		TxCtx:              txCtx,
		InstrCtx:           instrCtx,
		IndexInTransaction: indexInTx,
		IndexInInstruction: indexInInstruction,
		Account:            acct,
	}, nil
}

func (instrCtx *InstructionCtx) BorrowProgramAccount(txCtx *TransactionCtx, programAccountIndex uint64) (*BorrowedAccount, error) {
	indexInTx, err := instrCtx.IndexOfProgramAccountInTransaction(programAccountIndex)
	if err != nil {
		return nil, err
	}
	return instrCtx.borrowAccount(txCtx, indexInTx, programAccountIndex)
}

func (instrCtx *InstructionCtx) BorrowLastProgramAccount(txCtx *TransactionCtx) (*BorrowedAccount, error) {
	programAccountIndex := safemath.SaturatingSubU64(instrCtx.NumberOfProgramAccounts(), 1)
	return instrCtx.BorrowProgramAccount(txCtx, programAccountIndex)
}

func (instrCtx *InstructionCtx) BorrowInstructionAccount(txCtx *TransactionCtx, instrAcctIdx uint64) (*BorrowedAccount, error) {
	indexInTx, err := instrCtx.IndexOfInstructionAccountInTransaction(instrAcctIdx)
	if err != nil {
		return nil, err
	}
	return instrCtx.borrowAccount(txCtx, indexInTx, instrCtx.NumberOfProgramAccounts()+instrAcctIdx)
}
