package sealevel

import (
	"errors"
	"fmt"
)

// instruction errors
var (
	InstrErrGenericError                      = errors.New("InstrErrGenericError")
	InstrErrInvalidArgument                   = errors.New("InstrErrInvalidArgument")
	InstrErrInvalidInstructionData            = errors.New("InstrErrInvalidInstructionData")
	InstrErrInvalidAccountData                = errors.New("InstrErrInvalidAccountData")
	InstrErrAccountDataTooSmall               = errors.New("InstrErrAccountDataTooSmall")
	InstrErrInsufficientFunds                 = errors.New("InstrErrInsufficientFunds")
	InstrErrIncorrectProgramId                = errors.New("InstrErrIncorrectProgramId")
	InstrErrMissingRequiredSignature          = errors.New("InstrErrMissingRequiredSignature")
	InstrErrAccountAlreadyInitialized         = errors.New("InstrErrAccountAlreadyInitialized")
	InstrErrUninitializedAccount              = errors.New("InstrErrUninitializedAccount")
	InstrErrUnbalancedInstruction             = errors.New("InstrErrUnbalancedInstruction")
	InstrErrModifiedProgramId                 = errors.New("InstrErrModifiedProgramId")
	InstrErrExternalAccountLamportSpend       = errors.New("InstrErrExternalAccountLamportSpend")
	InstrErrExternalAccountDataModified       = errors.New("InstrErrExternalAccountDataModified")
	InstrErrReadonlyLamportChange             = errors.New("InstrErrReadonlyLamportChange")
	InstrErrReadonlyDataModified              = errors.New("InstrErrReadonlyDataModified")
	InstrErrPrivilegeEscalation               = errors.New("InstrErrPrivilegeEscalation")
	InstrErrNotEnoughAccountKeys              = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrAccountDataSizeChanged            = errors.New("InstrErrAccountDataSizeChanged")
	InstrErrAccountNotExecutable              = errors.New("InstrErrAccountNotExecutable")
	InstrErrAccountBorrowFailed               = errors.New("InstrErrAccountBorrowFailed")
	InstrErrAccountBorrowOutstanding          = errors.New("InstrErrAccountBorrowOutstanding")
	InstrErrExecutableDataModified            = errors.New("InstrErrExecutableDataModified")
	InstrErrExecutableLamportChange           = errors.New("InstrErrExecutableLamportChange")
	InstrErrUnsupportedProgramId              = errors.New("InstrErrUnsupportedProgramId")
	InstrErrCallDepth                         = errors.New("InstrErrCallDepth")
	InstrErrMissingAccount                    = errors.New("InstrErrMissingAccount")
	InstrErrReentrancyNotAllowed              = errors.New("InstrErrReentrancyNotAllowed")
	InstrErrInvalidRealloc                    = errors.New("InstrErrInvalidRealloc")
	InstrErrComputationalBudgetExceeded       = errors.New("InstrErrComputationalBudgetExceeded")
	InstrErrInvalidAccountOwner               = errors.New("InstrErrInvalidAccountOwner")
	InstrErrArithmeticOverflow                = errors.New("InstrErrArithmeticOverflow")
	InstrErrMaxInstructionTraceLengthExceeded = errors.New("InstrErrMaxInstructionTraceLengthExceeded")
)

// instruction errors - Solana numerical error codes
const (
	InstrErrCodeSuccess                           = 0
	InstrErrCodeGenericError                      = 1
	InstrErrCodeInvalidArgument                   = 2
	InstrErrCodeInvalidInstructionData            = 3
	InstrErrCodeInvalidAccountData                = 4
	InstrErrCodeAccountDataTooSmall               = 5
	InstrErrCodeInsufficientFunds                 = 6
	InstrErrCodeIncorrectProgramId                = 7
	InstrErrCodeMissingRequiredSignature          = 8
	InstrErrCodeAccountAlreadyInitialized         = 9
	InstrErrCodeUninitializedAccount              = 10
	InstrErrCodeUnbalancedInstruction             = 11
	InstrErrCodeModifiedProgramId                 = 12
	InstrErrCodeExternalAccountLamportSpend       = 13
	InstrErrCodeExternalAccountDataModified       = 14
	InstrErrCodeReadonlyLamportChange             = 15
	InstrErrCodeReadonlyDataModified              = 16
	InstrErrCodePrivilegeEscalation               = 19
	InstrErrCodeNotEnoughAccountKeys              = 20
	InstrErrCodeAccountDataSizeChanged            = 21
	InstrErrCodeAccountNotExecutable              = 22
	InstrErrCodeAccountBorrowFailed               = 23
	InstrErrCodeAccountBorrowOutstanding          = 24
	InstrErrCodeCustom                            = 26
	InstrErrCodeExecutableDataModified            = 28
	InstrErrCodeExecutableLamportChange           = 29
	InstrErrCodeUnsupportedProgramId              = 31
	InstrErrCodeCallDepth                         = 32
	InstrErrCodeMissingAccount                    = 33
	InstrErrCodeReentrancyNotAllowed              = 34
	InstrErrCodeMaxInstructionTraceLengthExceeded = 35
	InstrErrCodeInvalidRealloc                    = 37
	InstrErrCodeComputationalBudgetExceeded       = 38
	InstrErrCodeInvalidAccountOwner               = 47
	InstrErrCodeArithmeticOverflow                = 48
)

var instrErrCodes = map[error]int{
	InstrErrGenericError:                      InstrErrCodeGenericError,
	InstrErrInvalidArgument:                   InstrErrCodeInvalidArgument,
	InstrErrInvalidInstructionData:            InstrErrCodeInvalidInstructionData,
	InstrErrInvalidAccountData:                InstrErrCodeInvalidAccountData,
	InstrErrAccountDataTooSmall:               InstrErrCodeAccountDataTooSmall,
	InstrErrInsufficientFunds:                 InstrErrCodeInsufficientFunds,
	InstrErrIncorrectProgramId:                InstrErrCodeIncorrectProgramId,
	InstrErrMissingRequiredSignature:          InstrErrCodeMissingRequiredSignature,
	InstrErrAccountAlreadyInitialized:         InstrErrCodeAccountAlreadyInitialized,
	InstrErrUninitializedAccount:              InstrErrCodeUninitializedAccount,
	InstrErrUnbalancedInstruction:             InstrErrCodeUnbalancedInstruction,
	InstrErrModifiedProgramId:                 InstrErrCodeModifiedProgramId,
	InstrErrExternalAccountLamportSpend:       InstrErrCodeExternalAccountLamportSpend,
	InstrErrExternalAccountDataModified:       InstrErrCodeExternalAccountDataModified,
	InstrErrReadonlyLamportChange:             InstrErrCodeReadonlyLamportChange,
	InstrErrReadonlyDataModified:              InstrErrCodeReadonlyDataModified,
	InstrErrPrivilegeEscalation:               InstrErrCodePrivilegeEscalation,
	InstrErrNotEnoughAccountKeys:              InstrErrCodeNotEnoughAccountKeys,
	InstrErrAccountDataSizeChanged:            InstrErrCodeAccountDataSizeChanged,
	InstrErrAccountNotExecutable:              InstrErrCodeAccountNotExecutable,
	InstrErrAccountBorrowFailed:               InstrErrCodeAccountBorrowFailed,
	InstrErrAccountBorrowOutstanding:          InstrErrCodeAccountBorrowOutstanding,
	InstrErrExecutableDataModified:            InstrErrCodeExecutableDataModified,
	InstrErrExecutableLamportChange:           InstrErrCodeExecutableLamportChange,
	InstrErrUnsupportedProgramId:              InstrErrCodeUnsupportedProgramId,
	InstrErrCallDepth:                         InstrErrCodeCallDepth,
	InstrErrMissingAccount:                    InstrErrCodeMissingAccount,
	InstrErrReentrancyNotAllowed:              InstrErrCodeReentrancyNotAllowed,
	InstrErrInvalidRealloc:                    InstrErrCodeInvalidRealloc,
	InstrErrComputationalBudgetExceeded:       InstrErrCodeComputationalBudgetExceeded,
	InstrErrInvalidAccountOwner:               InstrErrCodeInvalidAccountOwner,
	InstrErrArithmeticOverflow:                InstrErrCodeArithmeticOverflow,
	InstrErrMaxInstructionTraceLengthExceeded: InstrErrCodeMaxInstructionTraceLengthExceeded,
}

// CustomError is a program-defined failure carrying the program's own
// 32-bit error code, surfaced on the wire as error code 26.
type CustomError struct {
	Code uint32
	Name string
}

func (e CustomError) Error() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("custom program error: %#x", e.Code)
}

// TranslateErrToInstrErrCode maps an instruction error to its numerical
// code. Unrecognized errors map to GenericError.
func TranslateErrToInstrErrCode(err error) int {
	var customErr CustomError
	if errors.As(err, &customErr) {
		return InstrErrCodeCustom
	}
	if code, ok := instrErrCodes[err]; ok {
		return code
	}
	// Wrapped sentinels still translate to their own code.
	for sentinel, code := range instrErrCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return InstrErrCodeGenericError
}

// CustomErrCode extracts the program-defined error code, if err is one.
func CustomErrCode(err error) (uint32, bool) {
	var customErr CustomError
	if errors.As(err, &customErr) {
		return customErr.Code, true
	}
	return 0, false
}

// IsInstrErr reports whether err is a recognized instruction error, as
// opposed to an internal failure of the harness itself.
func IsInstrErr(err error) bool {
	if _, ok := instrErrCodes[err]; ok {
		return true
	}
	_, ok := CustomErrCode(err)
	return ok
}
