package sysvars

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
)

func TestSysvars_WarpToSlot(t *testing.T) {
	sv := NewSysvarsDefault()
	assert.Equal(t, uint64(0), sv.Clock.Slot)

	sv.WarpToSlot(1000000)
	assert.Equal(t, uint64(1000000), sv.Clock.Slot)
	assert.Equal(t, uint64(2), sv.Clock.Epoch)
	assert.Equal(t, uint64(3), sv.Clock.LeaderScheduleEpoch)

	_, ok := sv.SlotHashes.Get(1000000)
	assert.True(t, ok)
}

func TestSysvars_RentMinimumBalance(t *testing.T) {
	sv := NewSysvarsDefault()

	// zero-data account exemption threshold on mainnet parameters
	assert.Equal(t, uint64(890880), sv.Rent.MinimumBalance(0))
	assert.True(t, sv.Rent.IsExempt(890880, 0))
	assert.False(t, sv.Rent.IsExempt(890879, 0))
}

func TestSysvars_ClockRoundTrip(t *testing.T) {
	clock := SysvarClock{Slot: 42, EpochStartTimestamp: -5, Epoch: 7, LeaderScheduleEpoch: 8, UnixTimestamp: 1700000000}

	data := new(bytes.Buffer)
	require.NoError(t, clock.MarshalWithEncoder(bin.NewBinEncoder(data)))
	assert.Equal(t, SysvarClockStructLen, data.Len())

	var decoded SysvarClock
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(data.Bytes())))
	assert.Equal(t, clock, decoded)
}

func TestSysvars_FillFromAccountsEmptyStore(t *testing.T) {
	sv := NewSysvarsDefault()
	sv.WarpToSlot(500)

	// a store with no sysvar accounts must leave every value untouched
	require.NoError(t, sv.FillFromAccounts(accounts.NewMemAccounts()))
	assert.Equal(t, uint64(500), sv.Clock.Slot)
	assert.Equal(t, uint64(890880), sv.Rent.MinimumBalance(0))
}

func TestSysvars_FillFromAccountsPartialOverride(t *testing.T) {
	sv := NewSysvarsDefault()

	clock := SysvarClock{Slot: 77, Epoch: 1, UnixTimestamp: 1700000000}
	data := new(bytes.Buffer)
	require.NoError(t, clock.MarshalWithEncoder(bin.NewBinEncoder(data)))

	store := accounts.NewMemAccounts()
	addr := SysvarClockAddr
	require.NoError(t, store.SetAccount(&addr, &accounts.Account{
		Key:      SysvarClockAddr,
		Owner:    SysvarOwnerAddr,
		Lamports: 1,
		Data:     data.Bytes(),
	}))

	require.NoError(t, sv.FillFromAccounts(store))
	assert.Equal(t, uint64(77), sv.Clock.Slot)

	// unsupplied sysvars keep their defaults
	assert.Equal(t, uint64(890880), sv.Rent.MinimumBalance(0))
}

func TestSysvars_KeyedAccountsCarryOwnerAndRent(t *testing.T) {
	sv := NewSysvarsDefault()
	accts, err := sv.KeyedAccounts()
	require.NoError(t, err)
	require.Len(t, accts, 7)

	for _, acct := range accts {
		assert.Equal(t, SysvarOwnerAddr, acct.Owner)
		assert.True(t, sv.Rent.IsExempt(acct.Lamports, uint64(len(acct.Data))))
	}
}

func TestSysvars_SlotHashesCap(t *testing.T) {
	var sh SysvarSlotHashes
	for slot := uint64(0); slot < SlotHashesMaxEntries+10; slot++ {
		sh.Add(slot, [32]byte{byte(slot)})
	}
	assert.Len(t, sh, SlotHashesMaxEntries)

	// newest entry kept, oldest evicted
	_, ok := sh.Get(SlotHashesMaxEntries + 9)
	assert.True(t, ok)
	_, ok = sh.Get(0)
	assert.False(t, ok)
}
