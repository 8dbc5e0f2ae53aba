package features

import (
	"github.com/Overclock-Validator/mussel/pkg/base58"
	"github.com/gagliardetto/solana-go"
)

// FeatureGate identifies one optional runtime behavior.
type FeatureGate struct {
	Name    string
	Address solana.PublicKey
}

var StopTruncatingStringsInSyscalls = FeatureGate{Name: "StopTruncatingStringsInSyscalls", Address: base58.MustDecodeFromString("16FMCmgLzCNNz6eTwGanbyN2ZxvTBSLuQ6DZhgeMshg")}
var EnablePartitionedEpochReward = FeatureGate{Name: "EnablePartitionedEpochReward", Address: base58.MustDecodeFromString("41tVp5qR1XwWRt5WifvtSQyuxtqQWJgEK8w91AtBqSwP")}
var LastRestartSlotSysvar = FeatureGate{Name: "LastRestartSlotSysvar", Address: base58.MustDecodeFromString("HooKD5NC9QNxk25QuzCssB8ecrEzGt6eXEPBUxWp1LaR")}
var SystemTransferZeroCheck = FeatureGate{Name: "SystemTransferZeroCheck", Address: base58.MustDecodeFromString("BrTR9hzw4WBGFP65AJMbpAo64DcA3U6jdPSga9fMV5cS")}
var RequireRentExemptSplitDestination = FeatureGate{Name: "RequireRentExemptSplitDestination", Address: base58.MustDecodeFromString("D2aip4BBr8NPWtU9vLrwrBvbuaQ8w1zV38zFLxx4pfBV")}
var DeprecateRewardsSysvar = FeatureGate{Name: "DeprecateRewardsSysvar", Address: base58.MustDecodeFromString("GaBtBJvmS4Arjj5W1NmFcyvPjsHN38UGYDq2MDwbs9Qu")}

// AllGates is the registered gate catalog, used to resolve gate addresses
// carried by fixtures back to known gates.
var AllGates = []FeatureGate{
	StopTruncatingStringsInSyscalls,
	EnablePartitionedEpochReward,
	LastRestartSlotSysvar,
	SystemTransferZeroCheck,
	RequireRentExemptSplitDestination,
	DeprecateRewardsSysvar,
}
