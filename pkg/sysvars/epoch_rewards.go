package sysvars

import (
	"fmt"

	"github.com/Overclock-Validator/mussel/pkg/base58"
	bin "github.com/gagliardetto/binary"
)

const SysvarEpochRewardsAddrStr = "SysvarEpochRewards1111111111111111111111111"

var SysvarEpochRewardsAddr = base58.MustDecodeFromString(SysvarEpochRewardsAddrStr)

const SysvarEpochRewardsStructLen = 24

type SysvarEpochRewards struct {
	TotalRewards                    uint64
	DistributedRewards              uint64
	DistributionCompleteBlockHeight uint64
}

func (ser *SysvarEpochRewards) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	totalRewards, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read TotalRewards when decoding SysvarEpochRewards: %w", err)
	}
	ser.TotalRewards = totalRewards

	distributedRewards, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read DistributedRewards when decoding SysvarEpochRewards: %w", err)
	}
	ser.DistributedRewards = distributedRewards

	distributionCompleteBlockHeight, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read DistributionCompleteBlockHeight when decoding SysvarEpochRewards: %w", err)
	}
	ser.DistributionCompleteBlockHeight = distributionCompleteBlockHeight

	return
}

func (ser *SysvarEpochRewards) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	err = encoder.WriteUint64(ser.TotalRewards, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize TotalRewards for SysvarEpochRewards: %w", err)
	}

	err = encoder.WriteUint64(ser.DistributedRewards, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize DistributedRewards for SysvarEpochRewards: %w", err)
	}

	err = encoder.WriteUint64(ser.DistributionCompleteBlockHeight, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize DistributionCompleteBlockHeight for SysvarEpochRewards: %w", err)
	}

	return
}
