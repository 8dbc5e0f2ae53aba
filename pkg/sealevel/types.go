package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

// Instruction is a single program invocation: the program to run, the
// accounts it may touch and the opaque instruction data.
type Instruction struct {
	Accounts  []AccountMeta
	Data      []byte
	ProgramId solana.PublicKey
}

type AccountMeta struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// InstructionAccount is an account reference after deduplication and
// privilege merging, carrying its various index mappings.
type InstructionAccount struct {
	IndexInTransaction uint64
	IndexInCaller      uint64
	IndexInCallee      uint64
	IsSigner           bool
	IsWritable         bool
}

func NewAccountMeta(pubkey solana.PublicKey, isSigner bool, isWritable bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: isSigner, IsWritable: isWritable}
}
