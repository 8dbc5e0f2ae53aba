package harness

import (
	"fmt"
	"time"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
)

type ProgramResultKind int

const (
	// ProgramResultSuccess means the program ran to completion.
	ProgramResultSuccess ProgramResultKind = iota
	// ProgramResultFailure means the program or runtime returned an
	// instruction error.
	ProgramResultFailure
	// ProgramResultUnknownProgram means no registered program matched the
	// instruction's program id; nothing was invoked.
	ProgramResultUnknownProgram
	// ProgramResultContractViolation means a non-writable account came out
	// of execution with different contents than it went in with.
	ProgramResultContractViolation
)

func (kind ProgramResultKind) String() string {
	switch kind {
	case ProgramResultSuccess:
		return "success"
	case ProgramResultFailure:
		return "failure"
	case ProgramResultUnknownProgram:
		return "unknown program"
	case ProgramResultContractViolation:
		return "writability contract violation"
	default:
		return "invalid"
	}
}

type ProgramResult struct {
	Kind ProgramResultKind
	Err  error
}

func (pr ProgramResult) Succeeded() bool {
	return pr.Kind == ProgramResultSuccess
}

// ErrCode returns the Solana numerical error code for the result: 0 for
// success, 26 with a custom code for program-defined errors.
func (pr ProgramResult) ErrCode() (uint32, uint32) {
	if pr.Kind == ProgramResultSuccess {
		return sealevel.InstrErrCodeSuccess, 0
	}
	if customCode, ok := sealevel.CustomErrCode(pr.Err); ok {
		return sealevel.InstrErrCodeCustom, customCode
	}
	return uint32(sealevel.TranslateErrToInstrErrCode(pr.Err)), 0
}

// InstructionResult is everything one pipeline invocation produced.
type InstructionResult struct {
	ComputeUnitsConsumed uint64
	ExecutionTime        time.Duration
	ProgramResult        ProgramResult
	ReturnData           []byte
	Logs                 []string
	ResultingAccounts    []accounts.Account
}

// AccountByKey returns the resulting account with the given key, or nil.
func (res *InstructionResult) AccountByKey(key solana.PublicKey) *accounts.Account {
	for idx := range res.ResultingAccounts {
		if res.ResultingAccounts[idx].Key == key {
			return &res.ResultingAccounts[idx]
		}
	}
	return nil
}

// Absorb folds a later result into this one: compute units and execution
// time accumulate, the program result and return data are replaced by the
// newer ones, and resulting accounts are merged key-wise with the newer
// state winning.
func (res *InstructionResult) Absorb(other InstructionResult) {
	res.ComputeUnitsConsumed += other.ComputeUnitsConsumed
	res.ExecutionTime += other.ExecutionTime
	res.ProgramResult = other.ProgramResult
	res.ReturnData = other.ReturnData
	res.Logs = append(res.Logs, other.Logs...)

	for _, acct := range other.ResultingAccounts {
		if existing := res.AccountByKey(acct.Key); existing != nil {
			*existing = acct
		} else {
			res.ResultingAccounts = append(res.ResultingAccounts, acct)
		}
	}
}

// Compare reports the first difference between two results, or nil if they
// match. Execution time and logs are not compared.
func (res *InstructionResult) Compare(other *InstructionResult) error {
	if res.ProgramResult.Kind != other.ProgramResult.Kind {
		return fmt.Errorf("program result mismatch: %s vs %s", res.ProgramResult.Kind, other.ProgramResult.Kind)
	}

	code, custom := res.ProgramResult.ErrCode()
	otherCode, otherCustom := other.ProgramResult.ErrCode()
	if code != otherCode || custom != otherCustom {
		return fmt.Errorf("program error code mismatch: (%d, %d) vs (%d, %d)", code, custom, otherCode, otherCustom)
	}

	if res.ComputeUnitsConsumed != other.ComputeUnitsConsumed {
		return fmt.Errorf("compute units mismatch: %d vs %d", res.ComputeUnitsConsumed, other.ComputeUnitsConsumed)
	}

	if !bytesEqual(res.ReturnData, other.ReturnData) {
		return fmt.Errorf("return data mismatch: %x vs %x", res.ReturnData, other.ReturnData)
	}

	if len(res.ResultingAccounts) != len(other.ResultingAccounts) {
		return fmt.Errorf("resulting account count mismatch: %d vs %d", len(res.ResultingAccounts), len(other.ResultingAccounts))
	}
	for idx := range res.ResultingAccounts {
		mine := &res.ResultingAccounts[idx]
		theirs := other.AccountByKey(mine.Key)
		if theirs == nil {
			return fmt.Errorf("resulting account %s missing from other result", mine.Key)
		}
		if err := compareAccounts(mine, theirs); err != nil {
			return err
		}
	}

	return nil
}

func compareAccounts(a *accounts.Account, b *accounts.Account) error {
	if a.Lamports != b.Lamports {
		return fmt.Errorf("account %s lamports mismatch: %d vs %d", a.Key, a.Lamports, b.Lamports)
	}
	if !bytesEqual(a.Data, b.Data) {
		return fmt.Errorf("account %s data mismatch", a.Key)
	}
	if a.Owner != b.Owner {
		return fmt.Errorf("account %s owner mismatch: %s vs %s", a.Key, a.Owner, b.Owner)
	}
	if a.Executable != b.Executable {
		return fmt.Errorf("account %s executable flag mismatch", a.Key)
	}
	return nil
}

func bytesEqual(a []byte, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}
