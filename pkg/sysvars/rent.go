package sysvars

import (
	"fmt"
	"math"

	"github.com/Overclock-Validator/mussel/pkg/base58"
	bin "github.com/gagliardetto/binary"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = base58.MustDecodeFromString(SysvarRentAddrStr)

const SysvarRentStructLen = 17

const (
	defaultLamportsPerBytePerYear = 3480
	defaultExemptionThreshold     = 2.0
	defaultBurnPercent            = 50
	accountStorageOverhead        = 128
)

type SysvarRent struct {
	LamportsPerUint8Year uint64
	ExemptionThreshold   float64
	BurnPercent          byte
}

func (sr *SysvarRent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	lamportsPerUint8Year, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerUint8Year when decoding SysvarRent: %w", err)
	}
	sr.LamportsPerUint8Year = lamportsPerUint8Year

	exemptionThreshold, err := decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding SysvarRent: %w", err)
	}
	sr.ExemptionThreshold = exemptionThreshold

	burnPercent, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding SysvarRent: %w", err)
	}
	sr.BurnPercent = burnPercent

	return
}

func (sr *SysvarRent) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	err = encoder.WriteUint64(sr.LamportsPerUint8Year, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize LamportsPerUint8Year for SysvarRent: %w", err)
	}

	err = encoder.WriteFloat64(sr.ExemptionThreshold, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize ExemptionThreshold for SysvarRent: %w", err)
	}

	err = encoder.WriteByte(sr.BurnPercent)
	if err != nil {
		return fmt.Errorf("failed to serialize BurnPercent for SysvarRent: %w", err)
	}

	return
}

// MinimumBalance returns the smallest lamport balance at which an account
// holding dataLen bytes is exempt from rent collection.
func (sr *SysvarRent) MinimumBalance(dataLen uint64) uint64 {
	perYear := (accountStorageOverhead + dataLen) * sr.LamportsPerUint8Year
	return uint64(math.Ceil(float64(perYear) * sr.ExemptionThreshold))
}

func (sr *SysvarRent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= sr.MinimumBalance(dataLen)
}
