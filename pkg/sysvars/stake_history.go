package sysvars

import (
	"fmt"

	"github.com/Overclock-Validator/mussel/pkg/base58"
	bin "github.com/gagliardetto/binary"
)

const SysvarStakeHistoryAddrStr = "SysvarStakeHistory1111111111111111111111111"

var SysvarStakeHistoryAddr = base58.MustDecodeFromString(SysvarStakeHistoryAddrStr)

type StakeHistoryEntry struct {
	Effective    uint64
	Activating   uint64
	Deactivating uint64
}

type StakeHistoryPair struct {
	Epoch uint64
	Entry StakeHistoryEntry
}

type SysvarStakeHistory []StakeHistoryPair

func (sh *SysvarStakeHistory) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	entriesLen, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read length of entries when decoding SysvarStakeHistory: %w", err)
	}

	stakeHistory := SysvarStakeHistory{}

	for count := uint64(0); count < entriesLen; count++ {
		stakeHistoryPair := StakeHistoryPair{}

		stakeHistoryPair.Epoch, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Epoch when decoding SysvarStakeHistory: %w", err)
		}

		stakeHistoryPair.Entry.Effective, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Effective when decoding SysvarStakeHistory: %w", err)
		}

		stakeHistoryPair.Entry.Activating, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Activating when decoding SysvarStakeHistory: %w", err)
		}

		stakeHistoryPair.Entry.Deactivating, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Deactivating when decoding SysvarStakeHistory: %w", err)
		}

		stakeHistory = append(stakeHistory, stakeHistoryPair)
	}

	*sh = stakeHistory

	return
}

func (sh *SysvarStakeHistory) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	err = encoder.WriteUint64(uint64(len(*sh)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize length of entries for SysvarStakeHistory: %w", err)
	}

	for _, pair := range *sh {
		err = encoder.WriteUint64(pair.Epoch, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Epoch for SysvarStakeHistory: %w", err)
		}

		err = encoder.WriteUint64(pair.Entry.Effective, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Effective for SysvarStakeHistory: %w", err)
		}

		err = encoder.WriteUint64(pair.Entry.Activating, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Activating for SysvarStakeHistory: %w", err)
		}

		err = encoder.WriteUint64(pair.Entry.Deactivating, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Deactivating for SysvarStakeHistory: %w", err)
		}
	}

	return
}

func (sh *SysvarStakeHistory) Get(epoch uint64) *StakeHistoryEntry {
	for _, pair := range *sh {
		if pair.Epoch == epoch {
			return &pair.Entry
		}
	}
	return nil
}
