package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/Overclock-Validator/mussel/pkg/util"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// ErrAccountMissing is returned when an instruction references an account
// the caller did not supply. It is a caller mistake, not an execution
// outcome, so it surfaces as an error rather than a failed result.
var ErrAccountMissing = errors.New("account referenced by instruction not provided")

const defaultLamportsPerSignature = 5000

// compiledAccounts is the flattened transaction view of one instruction:
// the program account at index zero and every unique referenced account
// after it, in first-reference order.
type compiledAccounts struct {
	txAccounts   []accounts.Account
	instrAccts   []sealevel.InstructionAccount
	instrIndices []uint64 // transaction index per instruction account reference
}

// compileAccounts resolves instruction account metas against the
// caller-supplied accounts, merging signer and writable privileges across
// duplicate references the way the transaction loader does. Sysvar
// accounts that weren't supplied are materialized from the harness
// sysvar state.
func (h *Harness) compileAccounts(instr sealevel.Instruction, accts []accounts.Account) (*compiledAccounts, error) {
	supplied := make(map[solana.PublicKey]*accounts.Account)
	for idx := range accts {
		supplied[accts[idx].Key] = &accts[idx]
	}

	sysvarAccts, err := h.Sysvars.KeyedAccounts()
	if err != nil {
		return nil, err
	}
	sysvarByKey := make(map[solana.PublicKey]*accounts.Account)
	for _, acct := range sysvarAccts {
		sysvarByKey[acct.Key] = acct
	}

	compiled := new(compiledAccounts)
	compiled.txAccounts = append(compiled.txAccounts, h.programAccount(instr.ProgramId, supplied))

	txIndexByKey := map[solana.PublicKey]uint64{instr.ProgramId: 0}

	for _, meta := range instr.Accounts {
		txIdx, seen := txIndexByKey[meta.Pubkey]
		if !seen {
			var acct *accounts.Account
			if acct = supplied[meta.Pubkey]; acct == nil {
				if acct = sysvarByKey[meta.Pubkey]; acct == nil {
					return nil, fmt.Errorf("%w: %s", ErrAccountMissing, meta.Pubkey)
				}
			}
			txIdx = uint64(len(compiled.txAccounts))
			txIndexByKey[meta.Pubkey] = txIdx
			compiled.txAccounts = append(compiled.txAccounts, acct.Clone())
		}
		compiled.instrIndices = append(compiled.instrIndices, txIdx)
	}

	for refIdx, meta := range instr.Accounts {
		txIdx := compiled.instrIndices[refIdx]
		calleeIdx := uint64(refIdx)
		for prior := 0; prior < refIdx; prior++ {
			if compiled.instrIndices[prior] == txIdx {
				calleeIdx = uint64(prior)
				break
			}
		}
		compiled.instrAccts = append(compiled.instrAccts, sealevel.InstructionAccount{
			IndexInTransaction: txIdx,
			IndexInCaller:      txIdx,
			IndexInCallee:      calleeIdx,
			IsSigner:           meta.IsSigner,
			IsWritable:         meta.IsWritable,
		})
	}

	// Duplicate references share a single transaction account, so each
	// reference carries the union of all privileges requested for the key.
	for idx := range compiled.instrAccts {
		first := &compiled.instrAccts[idx]
		for other := idx + 1; other < len(compiled.instrAccts); other++ {
			if compiled.instrAccts[other].IndexInTransaction == first.IndexInTransaction {
				first.IsSigner = first.IsSigner || compiled.instrAccts[other].IsSigner
				first.IsWritable = first.IsWritable || compiled.instrAccts[other].IsWritable
				compiled.instrAccts[other].IsSigner = first.IsSigner
				compiled.instrAccts[other].IsWritable = first.IsWritable
			}
		}
	}

	return compiled, nil
}

// ProgramAccount returns the keyed account the harness would stub in for
// a registered program, for callers assembling account lists by hand.
func (h *Harness) ProgramAccount(programId solana.PublicKey) accounts.Account {
	return h.programAccount(programId, nil)
}

// programAccount returns the transaction account for the invoked program,
// preferring a caller-supplied account and otherwise stubbing one owned
// by the registered loader.
func (h *Harness) programAccount(programId solana.PublicKey, supplied map[solana.PublicKey]*accounts.Account) accounts.Account {
	if acct := supplied[programId]; acct != nil {
		return acct.Clone()
	}

	owner := sealevel.NativeLoaderAddr
	if entry, ok := h.Registry.Resolve(programId); ok && entry.Builtin == nil {
		owner = entry.Loader
	}
	return accounts.Account{
		Key:        programId,
		Lamports:   1,
		Owner:      owner,
		Executable: true,
	}
}

// ProcessInstruction executes one instruction against the supplied
// accounts and returns what happened. Execution failures, including an
// unregistered program id, are reported inside the result; the error
// return is reserved for malformed invocations such as a referenced
// account that was never supplied.
func (h *Harness) ProcessInstruction(instr sealevel.Instruction, accts []accounts.Account) (InstructionResult, error) {
	compiled, err := h.compileAccounts(instr, accts)
	if err != nil {
		return InstructionResult{}, err
	}

	pristine := cloneAccounts(accts)

	if _, registered := h.Registry.Resolve(instr.ProgramId); !registered {
		klog.V(1).Infof("program %s not registered, skipping execution", instr.ProgramId)
		result := InstructionResult{
			ProgramResult:     ProgramResult{Kind: ProgramResultUnknownProgram, Err: sealevel.InstrErrUnsupportedProgramId},
			ResultingAccounts: pristine,
		}
		h.ejectFixture(instr, accts, &result)
		return result, nil
	}

	// Caller-supplied sysvar accounts override the harness defaults for
	// the duration of this instruction.
	sysvarState := h.Sysvars.Clone()
	suppliedStore := accounts.NewMemAccounts()
	for idx := range accts {
		_ = suppliedStore.SetAccount(&accts[idx].Key, &accts[idx])
	}
	if err = sysvarState.FillFromAccounts(suppliedStore); err != nil {
		return InstructionResult{}, err
	}

	txAccounts := sealevel.NewTransactionAccounts(compiled.txAccounts)
	txCtx := sealevel.NewTransactionCtx(txAccounts, h.ComputeBudget.MaxInstructionStackDepth, h.ComputeBudget.MaxInstructionTraceLength)

	recorder := new(sealevel.LogRecorder)
	execCtx := &sealevel.ExecutionCtx{
		Log:                  recorder,
		TransactionContext:   txCtx,
		ComputeMeter:         cu.NewComputeMeterFromBudget(h.ComputeBudget),
		Features:             h.Features.Clone(),
		Sysvars:              sysvarState,
		Registry:             h.Registry,
		VM:                   h.VM,
		LamportsPerSignature: defaultLamportsPerSignature,
	}

	readonlySnaps := h.hashReadonlyAccounts(compiled)

	start := time.Now()
	execErr := execCtx.ProcessInstruction(instr.Data, compiled.instrAccts, []uint64{0})
	elapsed := time.Since(start)

	// The transaction context works on its own copies; pull the post
	// execution state back so the contract check and the result see it.
	for txIdx := range compiled.txAccounts {
		if acct, acctErr := txCtx.Accounts.GetAccount(uint64(txIdx)); acctErr == nil {
			compiled.txAccounts[txIdx] = *acct
		}
	}

	result := InstructionResult{
		ComputeUnitsConsumed: execCtx.ComputeMeter.Used(),
		ExecutionTime:        elapsed,
		Logs:                 recorder.Logs,
	}
	returnDataProgramId, returnData := txCtx.GetReturnData()
	if returnDataProgramId == instr.ProgramId {
		result.ReturnData = returnData
	}

	switch {
	case execErr != nil:
		result.ProgramResult = ProgramResult{Kind: ProgramResultFailure, Err: execErr}
		result.ResultingAccounts = pristine
	default:
		if key, violation := h.checkReadonlyAccounts(compiled, readonlySnaps); violation != nil {
			result.ProgramResult = ProgramResult{
				Kind: ProgramResultContractViolation,
				Err:  fmt.Errorf("non-writable account %s: %w", key, violation),
			}
			result.ResultingAccounts = pristine
		} else {
			result.ResultingAccounts = resultingAccounts(compiled, accts)
		}
	}

	h.ejectFixture(instr, accts, &result)
	return result, nil
}

type readonlySnapshot struct {
	hash     []byte
	lamports uint64
}

// hashReadonlyAccounts snapshots every transaction account that no
// instruction reference marked writable, program account included.
func (h *Harness) hashReadonlyAccounts(compiled *compiledAccounts) map[uint64]readonlySnapshot {
	writable := make(map[uint64]bool)
	for _, instrAcct := range compiled.instrAccts {
		if instrAcct.IsWritable {
			writable[instrAcct.IndexInTransaction] = true
		}
	}

	snapshots := make(map[uint64]readonlySnapshot)
	for txIdx := range compiled.txAccounts {
		if !writable[uint64(txIdx)] {
			snapshots[uint64(txIdx)] = readonlySnapshot{
				hash:     util.CalculateAcctHash(compiled.txAccounts[txIdx]),
				lamports: compiled.txAccounts[txIdx].Lamports,
			}
		}
	}
	return snapshots
}

func (h *Harness) checkReadonlyAccounts(compiled *compiledAccounts, snapshots map[uint64]readonlySnapshot) (solana.PublicKey, error) {
	for txIdx, pre := range snapshots {
		postHash := util.CalculateAcctHash(compiled.txAccounts[txIdx])
		if !bytesEqual(pre.hash, postHash) {
			key := compiled.txAccounts[txIdx].Key
			if compiled.txAccounts[txIdx].Lamports != pre.lamports {
				return key, sealevel.InstrErrReadonlyLamportChange
			}
			return key, sealevel.InstrErrReadonlyDataModified
		}
	}
	return solana.PublicKey{}, nil
}

// resultingAccounts reports post-execution state for the caller-supplied
// accounts, preserving their order. Accounts the instruction never
// referenced pass through unchanged.
func resultingAccounts(compiled *compiledAccounts, accts []accounts.Account) []accounts.Account {
	postByKey := make(map[solana.PublicKey]*accounts.Account)
	for txIdx := range compiled.txAccounts {
		postByKey[compiled.txAccounts[txIdx].Key] = &compiled.txAccounts[txIdx]
	}

	out := make([]accounts.Account, 0, len(accts))
	for idx := range accts {
		if post, ok := postByKey[accts[idx].Key]; ok {
			out = append(out, post.Clone())
		} else {
			out = append(out, accts[idx].Clone())
		}
	}
	return out
}

func cloneAccounts(accts []accounts.Account) []accounts.Account {
	out := make([]accounts.Account, 0, len(accts))
	for idx := range accts {
		out = append(out, accts[idx].Clone())
	}
	return out
}
