package sealevel

import (
	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/safemath"
	"github.com/gagliardetto/solana-go"
)

// BorrowedAccount is an exclusive reference to a transaction account held
// while an instruction inspects or mutates it. Every mutation path checks
// the writability and ownership rules before touching the account.
type BorrowedAccount struct {
	TxCtx              *TransactionCtx
	InstrCtx           *InstructionCtx
	IndexInTransaction uint64
	IndexInInstruction uint64
	Account            *accounts.Account
	dropped            bool
}

// Drop releases the borrow. Safe to call more than once.
func (acct *BorrowedAccount) Drop() {
	if !acct.dropped {
		acct.TxCtx.Accounts.Unborrow(acct.IndexInTransaction)
		acct.dropped = true
	}
}

func (acct *BorrowedAccount) Key() solana.PublicKey {
	key, err := acct.TxCtx.KeyOfAccountAtIndex(acct.IndexInTransaction)
	if err != nil {
		panic("account key index out of range for held borrow")
	}
	return key
}

func (acct *BorrowedAccount) Owner() solana.PublicKey {
	return acct.Account.Owner
}

func (acct *BorrowedAccount) Lamports() uint64 {
	return acct.Account.Lamports
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.Account.Data
}

func (acct *BorrowedAccount) IsExecutable() bool {
	return acct.Account.Executable
}

func (acct *BorrowedAccount) Touch() error {
	return acct.TxCtx.Accounts.Touch(acct.IndexInTransaction)
}

// IsSigner reports the signer privilege of this account within the current
// instruction. Program accounts carry no privileges.
func (acct *BorrowedAccount) IsSigner() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	isSigner, err := instrCtx.IsInstructionAccountSigner(instrAcctIdx)
	if err != nil {
		return false
	}
	return isSigner
}

func (acct *BorrowedAccount) IsWritable() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	writable, err := instrCtx.IsInstructionAccountWritable(instrAcctIdx)
	if err != nil {
		return false
	}
	return writable
}

func (acct *BorrowedAccount) IsOwnedByCurrentProgram() bool {
	lastProgramKey, err := acct.InstrCtx.LastProgramKey(acct.TxCtx)
	if err != nil {
		return false
	}
	return lastProgramKey == acct.Owner()
}

func (acct *BorrowedAccount) DataCanBeChanged() error {
	if acct.IsExecutable() {
		return InstrErrExecutableDataModified
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyDataModified
	}
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountDataModified
	}
	return nil
}

func (acct *BorrowedAccount) lamportsCanBeChanged(subtracting bool) error {
	if acct.IsExecutable() {
		return InstrErrExecutableLamportChange
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyLamportChange
	}
	if subtracting && !acct.IsOwnedByCurrentProgram() && len(acct.Data()) != 0 {
		return InstrErrExternalAccountLamportSpend
	}
	return nil
}

func (acct *BorrowedAccount) SetLamports(lamports uint64) error {
	if err := acct.lamportsCanBeChanged(lamports < acct.Account.Lamports); err != nil {
		return err
	}
	if err := acct.Touch(); err != nil {
		return err
	}
	acct.Account.Lamports = lamports
	return nil
}

func (acct *BorrowedAccount) CheckedAddLamports(lamports uint64) error {
	newLamports, err := safemath.CheckedAddU64(acct.Account.Lamports, lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(newLamports)
}

func (acct *BorrowedAccount) CheckedSubLamports(lamports uint64) error {
	newLamports, err := safemath.CheckedSubU64(acct.Account.Lamports, lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(newLamports)
}

func (acct *BorrowedAccount) SetData(data []byte) error {
	if err := acct.DataCanBeChanged(); err != nil {
		return err
	}
	if err := acct.Touch(); err != nil {
		return err
	}
	acct.Account.Data = data
	return nil
}

// SetDataLength resizes the account data in place, zero-filling on growth.
func (acct *BorrowedAccount) SetDataLength(newLen uint64) error {
	if err := acct.DataCanBeChanged(); err != nil {
		return err
	}
	if uint64(len(acct.Account.Data)) == newLen {
		return nil
	}
	if err := acct.Touch(); err != nil {
		return err
	}

	if newLen < uint64(len(acct.Account.Data)) {
		acct.Account.Data = acct.Account.Data[:newLen]
	} else {
		acct.Account.Data = append(acct.Account.Data, make([]byte, newLen-uint64(len(acct.Account.Data)))...)
	}
	return nil
}

func (acct *BorrowedAccount) SetOwner(owner solana.PublicKey) error {
	if !acct.IsWritable() {
		return InstrErrModifiedProgramId
	}
	if acct.IsExecutable() {
		return InstrErrModifiedProgramId
	}
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrModifiedProgramId
	}
	if err := acct.Touch(); err != nil {
		return err
	}
	acct.Account.Owner = owner
	return nil
}
