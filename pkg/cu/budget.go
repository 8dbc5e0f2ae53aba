package cu

// fixed costs of the builtin programs and common metered operations
const (
	CUSyscallBaseCost                  = 100
	CULog64Units                       = 100
	CULogPubkeyUnits                   = 100
	CUMemOpBaseCost                    = 10
	CUCpiBytesPerUnit                  = 250
	CUCreateProgramAddressUnits        = 1500
	CUInvokeUnits                      = 1000
	CUSystemProgramDefaultComputeUnits = 150
	CUUpgradeableLoaderComputeUnits    = 2370
	CUDeprecatedLoaderComputeUnits     = 1140
	CUDefaultLoaderComputeUnits        = 570
	CUHeapCostDefault                  = 8
	CUMaxCpiInstructionSize            = 1280
)

// ComputeBudget bounds what one harness call may do. A budget is owned by
// the harness configuration and copied into each execution scope.
type ComputeBudget struct {
	ComputeUnitLimit          uint64
	HeapSize                  uint64
	HeapCost                  uint64
	MaxInstructionStackDepth  uint64
	MaxInstructionTraceLength uint64
	SyscallBaseCost           uint64
	LogUnits                  uint64
	CpiBytesPerUnit           uint64
	InvokeUnits               uint64
}

func DefaultComputeBudget() ComputeBudget {
	return ComputeBudget{
		ComputeUnitLimit:          1_400_000,
		HeapSize:                  32 * 1024,
		HeapCost:                  CUHeapCostDefault,
		MaxInstructionStackDepth:  5,
		MaxInstructionTraceLength: 64,
		SyscallBaseCost:           CUSyscallBaseCost,
		LogUnits:                  CULog64Units,
		CpiBytesPerUnit:           CUCpiBytesPerUnit,
		InvokeUnits:               CUInvokeUnits,
	}
}

// NewComputeMeterFromBudget seeds a meter with the budget's unit limit.
func NewComputeMeterFromBudget(budget ComputeBudget) ComputeMeter {
	return NewComputeMeter(budget.ComputeUnitLimit)
}
