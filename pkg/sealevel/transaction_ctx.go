package sealevel

import (
	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/gagliardetto/solana-go"
)

// TransactionAccounts holds the flat account list a transaction executes
// against, with touch tracking and runtime borrow flags.
type TransactionAccounts struct {
	Accounts []*accounts.Account
	Touched  []bool
	borrowed []bool
}

func NewTransactionAccounts(accts []accounts.Account) *TransactionAccounts {
	transactionAccts := &TransactionAccounts{
		Accounts: make([]*accounts.Account, len(accts)),
		Touched:  make([]bool, len(accts)),
		borrowed: make([]bool, len(accts)),
	}
	for idx := range accts {
		acct := accts[idx]
		transactionAccts.Accounts[idx] = &acct
	}
	return transactionAccts
}

func (ta *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(ta.Accounts)) {
		return nil, InstrErrNotEnoughAccountKeys
	}
	return ta.Accounts[idx], nil
}

func (ta *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(ta.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	ta.Touched[idx] = true
	return nil
}

func (ta *TransactionAccounts) IsTouched(idx uint64) (bool, error) {
	if idx >= uint64(len(ta.Touched)) {
		return false, InstrErrNotEnoughAccountKeys
	}
	return ta.Touched[idx], nil
}

func (ta *TransactionAccounts) Borrow(idx uint64) error {
	if idx >= uint64(len(ta.borrowed)) {
		return InstrErrNotEnoughAccountKeys
	}
	if ta.borrowed[idx] {
		return InstrErrAccountBorrowFailed
	}
	ta.borrowed[idx] = true
	return nil
}

func (ta *TransactionAccounts) Unborrow(idx uint64) {
	if idx < uint64(len(ta.borrowed)) {
		ta.borrowed[idx] = false
	}
}

type TxReturnData struct {
	programId solana.PublicKey
	data      []byte
}

// TransactionCtx tracks the state of one transaction as its instructions
// execute: the account set, the instruction stack and trace, and any
// return data set by the last program.
type TransactionCtx struct {
	AccountKeys      []solana.PublicKey
	Accounts         *TransactionAccounts
	instructionStack []uint64
	instructionTrace []*InstructionCtx
	nextInstrCtx     InstructionCtx
	returnData       TxReturnData
	maxStackDepth    uint64
	maxTraceLength   uint64
}

func NewTransactionCtx(transactionAccts *TransactionAccounts, maxStackDepth uint64, maxTraceLength uint64) *TransactionCtx {
	txCtx := &TransactionCtx{
		Accounts:       transactionAccts,
		maxStackDepth:  maxStackDepth,
		maxTraceLength: maxTraceLength,
	}
	for _, acct := range transactionAccts.Accounts {
		txCtx.AccountKeys = append(txCtx.AccountKeys, acct.Key)
	}
	return txCtx
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(idx uint64) (solana.PublicKey, error) {
	if idx >= uint64(len(txCtx.AccountKeys)) {
		return solana.PublicKey{}, InstrErrNotEnoughAccountKeys
	}
	return txCtx.AccountKeys[idx], nil
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for idx, key := range txCtx.AccountKeys {
		if key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) AccountAtIndex(idx uint64) (*accounts.Account, error) {
	return txCtx.Accounts.GetAccount(idx)
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

func (txCtx *TransactionCtx) InstructionTraceLength() uint64 {
	return uint64(len(txCtx.instructionTrace))
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	if len(txCtx.instructionStack) == 0 {
		return nil, InstrErrCallDepth
	}
	traceIdx := txCtx.instructionStack[len(txCtx.instructionStack)-1]
	return txCtx.InstructionCtxAtIndexInTrace(traceIdx)
}

func (txCtx *TransactionCtx) InstructionCtxAtIndexInTrace(traceIdx uint64) (*InstructionCtx, error) {
	if traceIdx >= uint64(len(txCtx.instructionTrace)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.instructionTrace[traceIdx], nil
}

func (txCtx *TransactionCtx) InstructionCtxAtNestingLevel(level uint64) (*InstructionCtx, error) {
	if level >= uint64(len(txCtx.instructionStack)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtIndexInTrace(txCtx.instructionStack[level])
}

// NextInstructionCtx returns the instruction context staged for the next
// Push. Configure it before pushing.
func (txCtx *TransactionCtx) NextInstructionCtx() (*InstructionCtx, error) {
	return &txCtx.nextInstrCtx, nil
}

func (txCtx *TransactionCtx) Push() error {
	if uint64(len(txCtx.instructionTrace)) >= txCtx.maxTraceLength {
		return InstrErrMaxInstructionTraceLengthExceeded
	}
	if uint64(len(txCtx.instructionStack)) >= txCtx.maxStackDepth {
		return InstrErrCallDepth
	}

	instrCtx := txCtx.nextInstrCtx
	instrCtx.nestingHeight = txCtx.InstructionCtxStackHeight()
	txCtx.nextInstrCtx = InstructionCtx{}

	txCtx.instructionTrace = append(txCtx.instructionTrace, &instrCtx)
	txCtx.instructionStack = append(txCtx.instructionStack, txCtx.InstructionTraceLength()-1)
	return nil
}

func (txCtx *TransactionCtx) Pop() error {
	if len(txCtx.instructionStack) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]
	return nil
}

func (txCtx *TransactionCtx) SetReturnData(programId solana.PublicKey, data []byte) {
	txCtx.returnData = TxReturnData{programId: programId, data: data}
}

func (txCtx *TransactionCtx) GetReturnData() (solana.PublicKey, []byte) {
	return txCtx.returnData.programId, txCtx.returnData.data
}
