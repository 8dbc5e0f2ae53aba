// Package sysvars holds the cluster sysvars carried by a harness
// environment, along with their account representations.
package sysvars

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/base58"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const SysvarOwnerAddrStr = "Sysvar1111111111111111111111111111111111111"

var SysvarOwnerAddr = base58.MustDecodeFromString(SysvarOwnerAddrStr)

// Sysvars is the full set of sysvars visible to an executing instruction.
type Sysvars struct {
	Clock           SysvarClock
	EpochSchedule   SysvarEpochSchedule
	EpochRewards    SysvarEpochRewards
	Rent            SysvarRent
	SlotHashes      SysvarSlotHashes
	StakeHistory    SysvarStakeHistory
	LastRestartSlot SysvarLastRestartSlot
}

// NewSysvarsDefault returns the sysvar set a fresh environment starts with:
// a linear epoch schedule, mainnet rent parameters, a clock at slot 0 and a
// single slot hash entry for slot 0.
func NewSysvarsDefault() *Sysvars {
	sv := &Sysvars{
		Clock: SysvarClock{
			Slot:          0,
			UnixTimestamp: time.Now().Unix(),
		},
		EpochSchedule: SysvarEpochSchedule{
			SlotsPerEpoch:            defaultSlotsPerEpoch,
			LeaderScheduleSlotOffset: defaultSlotsPerEpoch,
			Warmup:                   false,
			FirstNormalEpoch:         0,
			FirstNormalSlot:          0,
		},
		Rent: SysvarRent{
			LamportsPerUint8Year: defaultLamportsPerBytePerYear,
			ExemptionThreshold:   defaultExemptionThreshold,
			BurnPercent:          defaultBurnPercent,
		},
	}
	sv.SlotHashes.Add(0, [32]byte{})
	return sv
}

// WarpToSlot moves the clock to the given slot, recomputing the epoch from
// the epoch schedule and recording a slot hash entry for the new slot.
func (sv *Sysvars) WarpToSlot(slot uint64) {
	epoch := sv.EpochSchedule.EpochForSlot(slot)
	sv.Clock.Slot = slot
	sv.Clock.Epoch = epoch
	sv.Clock.LeaderScheduleEpoch = epoch + 1
	sv.SlotHashes.Add(slot, [32]byte{})
}

func (sv *Sysvars) Clone() *Sysvars {
	c := *sv
	c.SlotHashes = append(SysvarSlotHashes{}, sv.SlotHashes...)
	c.StakeHistory = append(SysvarStakeHistory{}, sv.StakeHistory...)
	return &c
}

type binMarshaler interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}

func serializeSysvar(m binMarshaler) ([]byte, error) {
	data := new(bytes.Buffer)
	enc := bin.NewBinEncoder(data)
	if err := m.MarshalWithEncoder(enc); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}

func (sv *Sysvars) keyedAccount(addr solana.PublicKey, m binMarshaler) (*accounts.Account, error) {
	data, err := serializeSysvar(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sysvar account %s: %w", addr, err)
	}
	return &accounts.Account{
		Key:       addr,
		Lamports:  sv.Rent.MinimumBalance(uint64(len(data))),
		Data:      data,
		Owner:     SysvarOwnerAddr,
		RentEpoch: ^uint64(0),
	}, nil
}

// KeyedAccounts serializes every sysvar into its on-chain account form.
func (sv *Sysvars) KeyedAccounts() ([]*accounts.Account, error) {
	entries := []struct {
		addr solana.PublicKey
		m    binMarshaler
	}{
		{SysvarClockAddr, &sv.Clock},
		{SysvarEpochScheduleAddr, &sv.EpochSchedule},
		{SysvarEpochRewardsAddr, &sv.EpochRewards},
		{SysvarRentAddr, &sv.Rent},
		{SysvarSlotHashesAddr, &sv.SlotHashes},
		{SysvarStakeHistoryAddr, &sv.StakeHistory},
		{SysvarLastRestartSlotAddr, &sv.LastRestartSlot},
	}

	accts := make([]*accounts.Account, 0, len(entries))
	for _, entry := range entries {
		acct, err := sv.keyedAccount(entry.addr, entry.m)
		if err != nil {
			return nil, err
		}
		accts = append(accts, acct)
	}
	return accts, nil
}

type binUnmarshaler interface {
	UnmarshalWithDecoder(decoder *bin.Decoder) error
}

// FillFromAccounts overrides sysvar values with the contents of any sysvar
// accounts present in the store. Missing accounts leave the current value.
func (sv *Sysvars) FillFromAccounts(accts accounts.Accounts) error {
	entries := []struct {
		addr solana.PublicKey
		u    binUnmarshaler
	}{
		{SysvarClockAddr, &sv.Clock},
		{SysvarEpochScheduleAddr, &sv.EpochSchedule},
		{SysvarEpochRewardsAddr, &sv.EpochRewards},
		{SysvarRentAddr, &sv.Rent},
		{SysvarSlotHashesAddr, &sv.SlotHashes},
		{SysvarStakeHistoryAddr, &sv.StakeHistory},
		{SysvarLastRestartSlotAddr, &sv.LastRestartSlot},
	}

	for _, entry := range entries {
		addr := entry.addr
		acct, err := accts.GetAccount(&addr)
		if err != nil || acct == nil || len(acct.Data) == 0 {
			continue
		}
		dec := bin.NewBinDecoder(acct.Data)
		if err := entry.u.UnmarshalWithDecoder(dec); err != nil {
			return fmt.Errorf("failed to decode sysvar account %s: %w", addr, err)
		}
	}

	return nil
}
