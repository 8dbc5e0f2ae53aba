package sysvars

import (
	"fmt"

	"github.com/Overclock-Validator/mussel/pkg/base58"
	bin "github.com/gagliardetto/binary"
)

const SysvarEpochScheduleAddrStr = "SysvarEpochSchedu1e111111111111111111111111"

var SysvarEpochScheduleAddr = base58.MustDecodeFromString(SysvarEpochScheduleAddrStr)

const SysvarEpochScheduleStructLen = 33

const defaultSlotsPerEpoch = 432000

type SysvarEpochSchedule struct {
	SlotsPerEpoch            uint64
	LeaderScheduleSlotOffset uint64
	Warmup                   bool
	FirstNormalEpoch         uint64
	FirstNormalSlot          uint64
}

func (ses *SysvarEpochSchedule) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	slotsPerEpoch, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read SlotsPerEpoch when decoding SysvarEpochSchedule: %w", err)
	}
	ses.SlotsPerEpoch = slotsPerEpoch

	leaderScheduleSlotOffset, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LeaderScheduleSlotOffset when decoding SysvarEpochSchedule: %w", err)
	}
	ses.LeaderScheduleSlotOffset = leaderScheduleSlotOffset

	warmup, err := decoder.ReadBool()
	if err != nil {
		return fmt.Errorf("failed to read Warmup when decoding SysvarEpochSchedule: %w", err)
	}
	ses.Warmup = warmup

	firstNormalEpoch, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read FirstNormalEpoch when decoding SysvarEpochSchedule: %w", err)
	}
	ses.FirstNormalEpoch = firstNormalEpoch

	firstNormalSlot, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read FirstNormalSlot when decoding SysvarEpochSchedule: %w", err)
	}
	ses.FirstNormalSlot = firstNormalSlot

	return
}

func (ses *SysvarEpochSchedule) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	err = encoder.WriteUint64(ses.SlotsPerEpoch, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize SlotsPerEpoch for SysvarEpochSchedule: %w", err)
	}

	err = encoder.WriteUint64(ses.LeaderScheduleSlotOffset, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize LeaderScheduleSlotOffset for SysvarEpochSchedule: %w", err)
	}

	err = encoder.WriteBool(ses.Warmup)
	if err != nil {
		return fmt.Errorf("failed to serialize Warmup for SysvarEpochSchedule: %w", err)
	}

	err = encoder.WriteUint64(ses.FirstNormalEpoch, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize FirstNormalEpoch for SysvarEpochSchedule: %w", err)
	}

	err = encoder.WriteUint64(ses.FirstNormalSlot, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize FirstNormalSlot for SysvarEpochSchedule: %w", err)
	}

	return
}

// EpochForSlot returns the epoch that contains the given slot. Warmup
// schedules are not supported; the schedule used here is always linear.
func (ses *SysvarEpochSchedule) EpochForSlot(slot uint64) uint64 {
	if slot < ses.FirstNormalSlot {
		return 0
	}
	return ses.FirstNormalEpoch + (slot-ses.FirstNormalSlot)/ses.SlotsPerEpoch
}

// FirstSlotInEpoch returns the first slot of the given epoch.
func (ses *SysvarEpochSchedule) FirstSlotInEpoch(epoch uint64) uint64 {
	if epoch < ses.FirstNormalEpoch {
		return 0
	}
	return ses.FirstNormalSlot + (epoch-ses.FirstNormalEpoch)*ses.SlotsPerEpoch
}
