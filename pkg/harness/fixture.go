package harness

import (
	"fmt"
	"strings"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/features"
	"github.com/Overclock-Validator/mussel/pkg/fixture"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

type fixtureCheckKind int

const (
	fixtureCheckResult fixtureCheckKind = iota
	fixtureCheckComputeUnits
	fixtureCheckReturnData
	fixtureCheckResultingAccounts
)

// FixtureCheck selects which effect fields fixture validation compares.
// The resulting-accounts check can be narrowed to, or away from, specific
// keys with the Only/Except constructors.
type FixtureCheck struct {
	kind    fixtureCheckKind
	include []solana.PublicKey
	exclude []solana.PublicKey
}

var (
	FixtureCheckResult            = FixtureCheck{kind: fixtureCheckResult}
	FixtureCheckComputeUnits      = FixtureCheck{kind: fixtureCheckComputeUnits}
	FixtureCheckReturnData        = FixtureCheck{kind: fixtureCheckReturnData}
	FixtureCheckResultingAccounts = FixtureCheck{kind: fixtureCheckResultingAccounts}
)

// FixtureCheckResultingAccountsOnly compares only the resulting accounts
// with the given keys.
func FixtureCheckResultingAccountsOnly(keys ...solana.PublicKey) FixtureCheck {
	return FixtureCheck{kind: fixtureCheckResultingAccounts, include: keys}
}

// FixtureCheckResultingAccountsExcept compares every resulting account
// except those with the given keys.
func FixtureCheckResultingAccountsExcept(keys ...solana.PublicKey) FixtureCheck {
	return FixtureCheck{kind: fixtureCheckResultingAccounts, exclude: keys}
}

// AllFixtureChecks covers every comparable effect field. Execution time
// is never compared; it is not deterministic.
func AllFixtureChecks() []FixtureCheck {
	return []FixtureCheck{
		FixtureCheckResult,
		FixtureCheckComputeUnits,
		FixtureCheckReturnData,
		FixtureCheckResultingAccounts,
	}
}

func (check *FixtureCheck) wantsAccount(key solana.PublicKey) bool {
	for _, excluded := range check.exclude {
		if excluded == key {
			return false
		}
	}
	if len(check.include) == 0 {
		return true
	}
	for _, included := range check.include {
		if included == key {
			return true
		}
	}
	return false
}

// ejectFixture captures one processed instruction into the configured
// sink. Capture failures are logged, never propagated; recording must not
// change test outcomes.
func (h *Harness) ejectFixture(instr sealevel.Instruction, accts []accounts.Account, result *InstructionResult) {
	if h.Sink == nil {
		return
	}
	fix := h.buildFixture(instr, accts, result)
	if err := h.Sink.Eject(fix); err != nil {
		klog.Errorf("failed to eject fixture for program %s: %s", instr.ProgramId, err)
	}
}

func (h *Harness) buildFixture(instr sealevel.Instruction, accts []accounts.Account, result *InstructionResult) *fixture.Fixture {
	fix := &fixture.Fixture{
		Context: fixture.FixtureContext{
			ComputeUnitLimit: h.ComputeBudget.ComputeUnitLimit,
			Slot:             h.Sysvars.Clock.Slot,
			FeatureAddrs:     h.Features.ActiveAddresses(),
			ProgramId:        instr.ProgramId,
			Data:             instr.Data,
			Accounts:         cloneAccounts(accts),
		},
	}
	for _, meta := range instr.Accounts {
		fix.Context.InstrAccounts = append(fix.Context.InstrAccounts, fixture.FixtureAccountMeta{
			Pubkey:     meta.Pubkey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}

	code, customCode := result.ProgramResult.ErrCode()
	fix.Effects = fixture.FixtureEffects{
		Result:               code,
		CustomErr:            customCode,
		ComputeUnitsConsumed: result.ComputeUnitsConsumed,
		ExecutionTime:        uint64(result.ExecutionTime.Nanoseconds()),
		ReturnData:           result.ReturnData,
		ResultingAccounts:    cloneAccounts(result.ResultingAccounts),
	}
	return fix
}

// harnessForFixture derives an execution environment from a fixture
// context: the recorded compute limit, slot and feature activations on
// top of this harness's program registry and VM.
func (h *Harness) harnessForFixture(ctx *fixture.FixtureContext) *Harness {
	fh := &Harness{
		ComputeBudget: h.ComputeBudget,
		Features:      features.NewFeaturesDefault(),
		Sysvars:       h.Sysvars.Clone(),
		Registry:      h.Registry,
		VM:            h.VM,
		searchPaths:   h.searchPaths,
	}
	fh.ComputeBudget.ComputeUnitLimit = ctx.ComputeUnitLimit
	for _, addr := range ctx.FeatureAddrs {
		fh.Features.EnableFeatureByAddress(addr, 0)
	}
	if ctx.Slot != 0 {
		fh.WarpToSlot(ctx.Slot)
	}
	return fh
}

func instructionFromFixture(ctx *fixture.FixtureContext) sealevel.Instruction {
	instr := sealevel.Instruction{
		ProgramId: ctx.ProgramId,
		Data:      ctx.Data,
	}
	for _, meta := range ctx.InstrAccounts {
		instr.Accounts = append(instr.Accounts, sealevel.AccountMeta{
			Pubkey:     meta.Pubkey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return instr
}

// ProcessFixture replays a recorded fixture context against this
// harness's registered programs and returns the fresh result.
func (h *Harness) ProcessFixture(fix *fixture.Fixture) (InstructionResult, error) {
	fh := h.harnessForFixture(&fix.Context)
	return fh.ProcessInstruction(instructionFromFixture(&fix.Context), fix.Context.Accounts)
}

// ProcessAndValidateFixture replays a fixture and compares every effect
// field against the recorded effects.
func (h *Harness) ProcessAndValidateFixture(fix *fixture.Fixture) (InstructionResult, error) {
	return h.ProcessAndPartiallyValidateFixture(fix, AllFixtureChecks()...)
}

// ProcessAndPartiallyValidateFixture replays a fixture and compares only
// the selected effect fields, aggregating every mismatch into one error.
func (h *Harness) ProcessAndPartiallyValidateFixture(fix *fixture.Fixture, checks ...FixtureCheck) (InstructionResult, error) {
	result, err := h.ProcessFixture(fix)
	if err != nil {
		return result, err
	}
	if err = compareEffects(&fix.Effects, &result, checks); err != nil {
		return result, err
	}
	return result, nil
}

// ProcessFiredancerFixture replays a firedancer interchange fixture.
func (h *Harness) ProcessFiredancerFixture(fix *fixture.InstrFixture) (InstructionResult, error) {
	return h.ProcessFixture(fix.Native())
}

// ProcessAndValidateFiredancerFixture replays a firedancer interchange
// fixture and compares every effect field against the recorded effects.
func (h *Harness) ProcessAndValidateFiredancerFixture(fix *fixture.InstrFixture) (InstructionResult, error) {
	return h.ProcessAndValidateFixture(fix.Native())
}

func compareEffects(expected *fixture.FixtureEffects, result *InstructionResult, checks []FixtureCheck) error {
	var mismatches []string
	code, customCode := result.ProgramResult.ErrCode()

	for _, check := range checks {
		switch check.kind {
		case fixtureCheckResult:
			if code != expected.Result {
				mismatches = append(mismatches, fmt.Sprintf("result code: expected %d, got %d", expected.Result, code))
			}
			if customCode != expected.CustomErr {
				mismatches = append(mismatches, fmt.Sprintf("custom error code: expected %d, got %d", expected.CustomErr, customCode))
			}
		case fixtureCheckComputeUnits:
			if result.ComputeUnitsConsumed != expected.ComputeUnitsConsumed {
				mismatches = append(mismatches, fmt.Sprintf("compute units: expected %d, got %d", expected.ComputeUnitsConsumed, result.ComputeUnitsConsumed))
			}
		case fixtureCheckReturnData:
			if !bytesEqual(result.ReturnData, expected.ReturnData) {
				mismatches = append(mismatches, fmt.Sprintf("return data: expected %x, got %x", expected.ReturnData, result.ReturnData))
			}
		case fixtureCheckResultingAccounts:
			mismatches = append(mismatches, compareResultingAccounts(&check, expected.ResultingAccounts, result)...)
		}
	}

	if len(mismatches) != 0 {
		return fmt.Errorf("fixture validation failed:\n  %s", strings.Join(mismatches, "\n  "))
	}
	return nil
}

func compareResultingAccounts(check *FixtureCheck, expected []accounts.Account, result *InstructionResult) []string {
	var mismatches []string
	for idx := range expected {
		want := &expected[idx]
		if !check.wantsAccount(want.Key) {
			continue
		}
		got := result.AccountByKey(want.Key)
		if got == nil {
			mismatches = append(mismatches, fmt.Sprintf("account %s: missing from result", want.Key))
			continue
		}
		if err := compareAccounts(got, want); err != nil {
			mismatches = append(mismatches, err.Error())
		}
	}
	return mismatches
}
