package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
)

// A Check asserts one property of an instruction result. Each constructor
// below builds one variant as a closure over its expected value; the
// closure returns nil on success and a description of the mismatch
// otherwise. Every check runs even after an earlier one fails, so one
// validation pass reports every mismatch at once.
type Check func(h *Harness, result *InstructionResult) error

// CheckSuccess asserts the program ran to completion.
func CheckSuccess() Check {
	return func(h *Harness, result *InstructionResult) error {
		if !result.ProgramResult.Succeeded() {
			return fmt.Errorf("expected success, got %s: %s", result.ProgramResult.Kind, result.ProgramResult.Err)
		}
		return nil
	}
}

// CheckErr asserts the instruction failed with the given error. Errors
// match by errors.Is or, failing that, by numerical error code.
func CheckErr(expected error) Check {
	return func(h *Harness, result *InstructionResult) error {
		if result.ProgramResult.Succeeded() {
			return fmt.Errorf("expected error %s, got success", expected)
		}
		actual := result.ProgramResult.Err
		if errors.Is(actual, expected) {
			return nil
		}
		expectedCode := sealevel.TranslateErrToInstrErrCode(expected)
		actualCode := sealevel.TranslateErrToInstrErrCode(actual)
		if expectedCode != actualCode {
			return fmt.Errorf("expected error %s, got %s", expected, actual)
		}
		if expectedCode == sealevel.InstrErrCodeCustom {
			expectedCustom, _ := sealevel.CustomErrCode(expected)
			actualCustom, _ := sealevel.CustomErrCode(actual)
			if expectedCustom != actualCustom {
				return fmt.Errorf("expected custom error %d, got %d", expectedCustom, actualCustom)
			}
		}
		return nil
	}
}

// CheckComputeUnits asserts the exact compute unit consumption.
func CheckComputeUnits(expected uint64) Check {
	return func(h *Harness, result *InstructionResult) error {
		if result.ComputeUnitsConsumed != expected {
			return fmt.Errorf("expected %d compute units, got %d", expected, result.ComputeUnitsConsumed)
		}
		return nil
	}
}

// CheckReturnData asserts the instruction's return data.
func CheckReturnData(expected []byte) Check {
	return func(h *Harness, result *InstructionResult) error {
		if !bytesEqual(result.ReturnData, expected) {
			return fmt.Errorf("expected return data %x, got %x", expected, result.ReturnData)
		}
		return nil
	}
}

// CheckLogContains asserts some log line contains the given substring.
func CheckLogContains(substr string) Check {
	return func(h *Harness, result *InstructionResult) error {
		for _, line := range result.Logs {
			if strings.Contains(line, substr) {
				return nil
			}
		}
		return fmt.Errorf("no log line contains %q", substr)
	}
}

func resultAccount(result *InstructionResult, key solana.PublicKey) (*accounts.Account, error) {
	acct := result.AccountByKey(key)
	if acct == nil {
		return nil, fmt.Errorf("account %s: not in result", key)
	}
	return acct, nil
}

// CheckAccountLamports asserts a resulting account's balance.
func CheckAccountLamports(key solana.PublicKey, expected uint64) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		if acct.Lamports != expected {
			return fmt.Errorf("account %s: expected %d lamports, got %d", key, expected, acct.Lamports)
		}
		return nil
	}
}

// CheckAccountData asserts a resulting account's full data contents.
func CheckAccountData(key solana.PublicKey, expected []byte) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		if !bytesEqual(acct.Data, expected) {
			return fmt.Errorf("account %s: data mismatch", key)
		}
		return nil
	}
}

// CheckAccountDataSlice asserts the account data starting at offset.
func CheckAccountDataSlice(key solana.PublicKey, offset uint64, expected []byte) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		end := offset + uint64(len(expected))
		if end > uint64(len(acct.Data)) {
			return fmt.Errorf("account %s: data slice [%d:%d] out of range (len %d)", key, offset, end, len(acct.Data))
		}
		if !bytesEqual(acct.Data[offset:end], expected) {
			return fmt.Errorf("account %s: data slice at offset %d mismatch", key, offset)
		}
		return nil
	}
}

// CheckAccountOwner asserts a resulting account's owner.
func CheckAccountOwner(key solana.PublicKey, expected solana.PublicKey) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		if acct.Owner != expected {
			return fmt.Errorf("account %s: expected owner %s, got %s", key, expected, acct.Owner)
		}
		return nil
	}
}

// CheckAccountSpace asserts a resulting account's data length.
func CheckAccountSpace(key solana.PublicKey, expected uint64) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		if uint64(len(acct.Data)) != expected {
			return fmt.Errorf("account %s: expected %d data bytes, got %d", key, expected, len(acct.Data))
		}
		return nil
	}
}

// CheckAccountRentEpoch asserts a resulting account's rent epoch.
func CheckAccountRentEpoch(key solana.PublicKey, expected uint64) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		if acct.RentEpoch != expected {
			return fmt.Errorf("account %s: expected rent epoch %d, got %d", key, expected, acct.RentEpoch)
		}
		return nil
	}
}

// CheckAccountExecutable asserts a resulting account's executable flag.
func CheckAccountExecutable(key solana.PublicKey, expected bool) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		if acct.Executable != expected {
			return fmt.Errorf("account %s: expected executable=%t, got %t", key, expected, acct.Executable)
		}
		return nil
	}
}

// CheckAccountClosed asserts the account ended up with zero lamports and
// no data.
func CheckAccountClosed(key solana.PublicKey) Check {
	return func(h *Harness, result *InstructionResult) error {
		acct, err := resultAccount(result, key)
		if err != nil {
			return err
		}
		if acct.Lamports != 0 || len(acct.Data) != 0 {
			return fmt.Errorf("account %s: expected closed, has %d lamports and %d data bytes", key, acct.Lamports, len(acct.Data))
		}
		return nil
	}
}

// CheckAllRentExempt asserts every resulting account holding data is rent
// exempt under the harness's rent sysvar.
func CheckAllRentExempt() Check {
	return func(h *Harness, result *InstructionResult) error {
		for idx := range result.ResultingAccounts {
			acct := &result.ResultingAccounts[idx]
			if len(acct.Data) == 0 && acct.Lamports == 0 {
				continue
			}
			if !h.Sysvars.Rent.IsExempt(acct.Lamports, uint64(len(acct.Data))) {
				return fmt.Errorf("account %s: not rent exempt (%d lamports, %d data bytes)", acct.Key, acct.Lamports, len(acct.Data))
			}
		}
		return nil
	}
}

// ProcessAndValidateInstruction executes the instruction and runs every
// check against the result. All check failures are collected and reported
// in a single panic so a test shows the complete picture at once.
func (h *Harness) ProcessAndValidateInstruction(instr sealevel.Instruction, accts []accounts.Account, checks ...Check) (InstructionResult, error) {
	result, err := h.ProcessInstruction(instr, accts)
	if err != nil {
		return result, err
	}
	h.runChecks(&result, checks)
	return result, nil
}

func (h *Harness) runChecks(result *InstructionResult, checks []Check) {
	var failures []string
	for _, check := range checks {
		if err := check(h, result); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) != 0 {
		panic(fmt.Sprintf("%d instruction check(s) failed:\n  %s", len(failures), strings.Join(failures, "\n  ")))
	}
}
