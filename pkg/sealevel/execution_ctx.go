package sealevel

import (
	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/Overclock-Validator/mussel/pkg/features"
	"github.com/Overclock-Validator/mussel/pkg/sysvars"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// ExecutionCtx carries everything an executing instruction can see: the
// transaction context, compute meter, feature set, sysvars and the
// program registry.
type ExecutionCtx struct {
	Log                  Logger
	TransactionContext   *TransactionCtx
	ComputeMeter         cu.ComputeMeter
	Features             *features.Features
	Sysvars              *sysvars.Sysvars
	Registry             *ProgramRegistry
	VM                   VM
	Blockhash            [32]byte
	LamportsPerSignature uint64
}

// ConsumeCompute charges compute units, translating meter exhaustion into
// the corresponding instruction error.
func (execCtx *ExecutionCtx) ConsumeCompute(cost uint64) error {
	if err := execCtx.ComputeMeter.Consume(cost); err != nil {
		return InstrErrComputationalBudgetExceeded
	}
	return nil
}

// PrepareInstruction deduplicates the instruction's account metas, merges
// privileges across duplicates and verifies that the callee gains no
// privilege the caller does not hold.
func (execCtx *ExecutionCtx) PrepareInstruction(ix Instruction, signers []solana.PublicKey) ([]InstructionAccount, []uint64, error) {
	txCtx := execCtx.TransactionContext

	ixCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, nil, err
	}

	dedupInstructionAccounts := make([]InstructionAccount, 0)
	duplicateIndices := make([]uint64, 0)

	for instructionAcctIndex, accountMeta := range ix.Accounts {
		indexInTx, err := txCtx.IndexOfAccount(accountMeta.Pubkey)
		if err != nil {
			klog.Errorf("instruction references unknown account %s", accountMeta.Pubkey)
			return nil, nil, err
		}

		duplicateIndex := -1
		for index, instrAcct := range dedupInstructionAccounts {
			if instrAcct.IndexInTransaction == indexInTx {
				duplicateIndex = index
				break
			}
		}

		if duplicateIndex != -1 {
			duplicateIndices = append(duplicateIndices, uint64(duplicateIndex))
			dedupInstructionAccounts[duplicateIndex].IsSigner = dedupInstructionAccounts[duplicateIndex].IsSigner || accountMeta.IsSigner
			dedupInstructionAccounts[duplicateIndex].IsWritable = dedupInstructionAccounts[duplicateIndex].IsWritable || accountMeta.IsWritable
		} else {
			indexInCaller, err := ixCtx.IndexOfInstructionAccount(txCtx, accountMeta.Pubkey)
			if err != nil {
				return nil, nil, err
			}
			duplicateIndices = append(duplicateIndices, uint64(len(dedupInstructionAccounts)))

			instrAcct := InstructionAccount{
				IndexInTransaction: indexInTx,
				IndexInCaller:      indexInCaller,
				IndexInCallee:      uint64(instructionAcctIndex),
				IsSigner:           accountMeta.IsSigner,
				IsWritable:         accountMeta.IsWritable,
			}

			dedupInstructionAccounts = append(dedupInstructionAccounts, instrAcct)
		}
	}

	for _, instructionAcct := range dedupInstructionAccounts {
		borrowedAcct, err := ixCtx.BorrowInstructionAccount(txCtx, instructionAcct.IndexInCaller)
		if err != nil {
			return nil, nil, err
		}

		// "Read-only in caller cannot become writable in callee"
		if instructionAcct.IsWritable && !borrowedAcct.IsWritable() {
			borrowedAcct.Drop()
			return nil, nil, InstrErrPrivilegeEscalation
		}

		// "To be signed in the callee, it must be either signed in the
		// caller or by the program"
		presentInSigners := false
		for _, addr := range signers {
			if addr == borrowedAcct.Key() {
				presentInSigners = true
				break
			}
		}
		if instructionAcct.IsSigner && !(borrowedAcct.IsSigner() || presentInSigners) {
			borrowedAcct.Drop()
			return nil, nil, InstrErrPrivilegeEscalation
		}
		borrowedAcct.Drop()
	}

	var instructionAccounts []InstructionAccount
	for _, duplicateIndex := range duplicateIndices {
		if duplicateIndex >= uint64(len(dedupInstructionAccounts)) {
			return nil, nil, InstrErrNotEnoughAccountKeys
		}
		instructionAccounts = append(instructionAccounts, dedupInstructionAccounts[duplicateIndex])
	}

	calleeProgramId := ix.ProgramId
	programAcctIdx, err := ixCtx.IndexOfInstructionAccount(txCtx, calleeProgramId)
	if err != nil {
		klog.Errorf("unknown program %s", calleeProgramId)
		return nil, nil, err
	}

	borrowedProgramAcct, err := ixCtx.BorrowInstructionAccount(txCtx, programAcctIdx)
	if err != nil {
		return nil, nil, err
	}
	defer borrowedProgramAcct.Drop()

	if !borrowedProgramAcct.IsExecutable() {
		klog.Errorf("account %s is not executable", calleeProgramId)
		return nil, nil, InstrErrAccountNotExecutable
	}

	return instructionAccounts, []uint64{borrowedProgramAcct.IndexInTransaction}, nil
}

// ProcessInstruction stages and executes one instruction: push the
// instruction context, run the program, pop.
func (execCtx *ExecutionCtx) ProcessInstruction(instrData []byte, instructionAccts []InstructionAccount, programIndices []uint64) error {
	nextInstrCtx, err := execCtx.TransactionContext.NextInstructionCtx()
	if err != nil {
		return err
	}

	nextInstrCtx.Configure(programIndices, instructionAccts, instrData)

	if err = execCtx.Push(); err != nil {
		return err
	}

	executeErr := execCtx.ExecuteInstruction()
	popErr := execCtx.Pop()

	if executeErr != nil {
		return executeErr
	}
	return popErr
}

// ExecuteInstruction resolves the current program to a builtin entrypoint
// or a VM image and runs it.
func (execCtx *ExecutionCtx) ExecuteInstruction() error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	borrowedRootAccount, err := instrCtx.BorrowProgramAccount(txCtx, 0)
	if err != nil {
		klog.V(2).Infof("BorrowProgramAccount failed: %s", err)
		return InstrErrUnsupportedProgramId
	}

	programKey := borrowedRootAccount.Key()
	ownerId := borrowedRootAccount.Owner()
	borrowedRootAccount.Drop()

	entry, ok := execCtx.Registry.Resolve(programKey)
	if !ok {
		klog.V(2).Infof("program %s (owner %s) is not registered", programKey, ownerId)
		return InstrErrUnsupportedProgramId
	}

	if entry.Builtin != nil {
		klog.V(2).Infof("invoking builtin program %s", programKey)
		return entry.Builtin(execCtx)
	}

	if execCtx.VM == nil {
		klog.V(2).Infof("program %s requires a VM but none is configured", programKey)
		return InstrErrUnsupportedProgramId
	}

	klog.V(2).Infof("invoking program %s on VM", programKey)
	return execCtx.VM.Invoke(execCtx, programKey, entry.Image)
}

// Push places the staged instruction context on the stack, refusing
// non-tail reentrancy.
func (execCtx *ExecutionCtx) Push() error {
	txCtx := execCtx.TransactionContext

	nextInstrCtx, err := txCtx.NextInstructionCtx()
	if err != nil {
		return err
	}

	programId, err := nextInstrCtx.LastProgramKey(txCtx)
	if err != nil {
		return InstrErrUnsupportedProgramId
	}

	if txCtx.InstructionCtxStackHeight() != 0 {
		var contains bool
		for level := uint64(0); level < txCtx.InstructionCtxStackHeight(); level++ {
			ic, err := txCtx.InstructionCtxAtNestingLevel(level)
			if err != nil {
				continue
			}
			key, err := ic.LastProgramKey(txCtx)
			if err == nil && key == programId {
				contains = true
				break
			}
		}

		var isLast bool
		ic, err := txCtx.CurrentInstructionCtx()
		if err != nil {
			return err
		}
		key, err := ic.LastProgramKey(txCtx)
		if err == nil && key == programId {
			isLast = true
		}

		if contains && !isLast {
			return InstrErrReentrancyNotAllowed
		}
	}

	return txCtx.Push()
}

func (execCtx *ExecutionCtx) Pop() error {
	return execCtx.TransactionContext.Pop()
}

func (execCtx *ExecutionCtx) StackHeight() uint64 {
	return execCtx.TransactionContext.InstructionCtxStackHeight()
}

// NativeInvoke performs a cross-program invocation on behalf of the
// currently executing program.
func (execCtx *ExecutionCtx) NativeInvoke(instruction Instruction, signers []solana.PublicKey) error {
	instrAccts, programIndices, err := execCtx.PrepareInstruction(instruction, signers)
	if err != nil {
		return err
	}

	return execCtx.ProcessInstruction(instruction.Data, instrAccts, programIndices)
}
