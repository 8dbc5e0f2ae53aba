package sysvars

import (
	"fmt"

	"github.com/Overclock-Validator/mussel/pkg/base58"
	bin "github.com/gagliardetto/binary"
)

const SysvarSlotHashesAddrStr = "SysvarS1otHashes111111111111111111111111111"

var SysvarSlotHashesAddr = base58.MustDecodeFromString(SysvarSlotHashesAddrStr)

// SlotHashesMaxEntries is the cluster cap on retained slot hashes.
const SlotHashesMaxEntries = 512

type SlotHash struct {
	Slot uint64
	Hash [32]byte
}

type SysvarSlotHashes []SlotHash

func (sh *SysvarSlotHashes) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	hashesLen, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read length of SlotHashes vec when decoding SysvarSlotHashes: %w", err)
	}

	slotHashes := SysvarSlotHashes{}

	for count := uint64(0); count < hashesLen; count++ {
		slot, err := decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Slot when decoding a SlotHash in SysvarSlotHashes: %w", err)
		}
		hash, err := decoder.ReadBytes(32)
		if err != nil {
			return fmt.Errorf("failed to read Hash when decoding a SlotHash in SysvarSlotHashes: %w", err)
		}
		slotHash := SlotHash{Slot: slot}
		copy(slotHash.Hash[:], hash)

		slotHashes = append(slotHashes, slotHash)
	}

	*sh = slotHashes

	return
}

func (sh *SysvarSlotHashes) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	err = encoder.WriteUint64(uint64(len(*sh)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize length of SlotHashes vec for SysvarSlotHashes: %w", err)
	}

	for _, slotHash := range *sh {
		err = encoder.WriteUint64(slotHash.Slot, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Slot for a SlotHash in SysvarSlotHashes: %w", err)
		}
		err = encoder.WriteBytes(slotHash.Hash[:], false)
		if err != nil {
			return fmt.Errorf("failed to serialize Hash for a SlotHash in SysvarSlotHashes: %w", err)
		}
	}

	return
}

// Add records the hash for a slot at the front of the list, replacing any
// existing entry for the same slot, and truncates to SlotHashesMaxEntries.
func (sh *SysvarSlotHashes) Add(slot uint64, hash [32]byte) {
	hashes := *sh

	for idx := range hashes {
		if hashes[idx].Slot == slot {
			hashes[idx].Hash = hash
			return
		}
	}

	hashes = append([]SlotHash{{Slot: slot, Hash: hash}}, hashes...)
	if len(hashes) > SlotHashesMaxEntries {
		hashes = hashes[:SlotHashesMaxEntries]
	}

	*sh = hashes
}

// Get returns the hash recorded for a slot, if any.
func (sh *SysvarSlotHashes) Get(slot uint64) ([32]byte, bool) {
	for _, slotHash := range *sh {
		if slotHash.Slot == slot {
			return slotHash.Hash, true
		}
	}
	return [32]byte{}, false
}
