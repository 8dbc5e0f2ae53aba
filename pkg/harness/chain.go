package harness

import (
	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
)

// ChainStep pairs one instruction of a chain with the checks to run after
// it executes.
type ChainStep struct {
	Instruction sealevel.Instruction
	Checks      []Check
}

// ProcessInstructionChain executes instructions in order, feeding each
// one the account state the previous one produced. Results accumulate via
// Absorb. A failing step ends the chain; later instructions would observe
// state the failure never committed.
func (h *Harness) ProcessInstructionChain(instrs []sealevel.Instruction, accts []accounts.Account) (InstructionResult, error) {
	steps := make([]ChainStep, 0, len(instrs))
	for _, instr := range instrs {
		steps = append(steps, ChainStep{Instruction: instr})
	}
	return h.ProcessAndValidateInstructionChain(steps, accts)
}

// ProcessAndValidateInstructionChain executes chain steps in order,
// running each step's checks against that step's result. Check failures
// panic just as in ProcessAndValidateInstruction.
func (h *Harness) ProcessAndValidateInstructionChain(steps []ChainStep, accts []accounts.Account) (InstructionResult, error) {
	var chainResult InstructionResult
	current := cloneAccounts(accts)

	for _, step := range steps {
		stepResult, err := h.ProcessInstruction(step.Instruction, current)
		if err != nil {
			return chainResult, err
		}
		h.runChecks(&stepResult, step.Checks)
		chainResult.Absorb(stepResult)
		current = cloneAccounts(chainResult.ResultingAccounts)

		if !stepResult.ProgramResult.Succeeded() {
			break
		}
	}

	return chainResult, nil
}
