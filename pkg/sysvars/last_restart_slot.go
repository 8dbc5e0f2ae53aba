package sysvars

import (
	"fmt"

	"github.com/Overclock-Validator/mussel/pkg/base58"
	bin "github.com/gagliardetto/binary"
)

const SysvarLastRestartSlotAddrStr = "SysvarLastRestartS1ot1111111111111111111111"

var SysvarLastRestartSlotAddr = base58.MustDecodeFromString(SysvarLastRestartSlotAddrStr)

const SysvarLastRestartSlotStructLen = 8

type SysvarLastRestartSlot struct {
	LastRestartSlot uint64
}

func (lrs *SysvarLastRestartSlot) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	lastRestartSlot, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LastRestartSlot when decoding SysvarLastRestartSlot: %w", err)
	}
	lrs.LastRestartSlot = lastRestartSlot
	return
}

func (lrs *SysvarLastRestartSlot) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	err = encoder.WriteUint64(lrs.LastRestartSlot, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize LastRestartSlot for SysvarLastRestartSlot: %w", err)
	}
	return
}
