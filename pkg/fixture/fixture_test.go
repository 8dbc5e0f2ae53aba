package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFixture(t *testing.T) *Fixture {
	senderPrivkey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	receiverPrivkey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	sender := senderPrivkey.PublicKey()
	receiver := receiverPrivkey.PublicKey()

	return &Fixture{
		Context: FixtureContext{
			ComputeUnitLimit: 1400000,
			Slot:             42,
			ProgramId:        solana.SystemProgramID,
			InstrAccounts: []FixtureAccountMeta{
				{Pubkey: sender, IsSigner: true, IsWritable: true},
				{Pubkey: receiver, IsWritable: true},
			},
			Data: []byte{2, 0, 0, 0, 0xa0, 0xa4, 0, 0, 0, 0, 0, 0},
			Accounts: []accounts.Account{
				{Key: sender, Lamports: 100000000, Data: []byte{}, Owner: solana.SystemProgramID},
				{Key: receiver, Lamports: 100000000, Data: []byte{}, Owner: solana.SystemProgramID},
			},
		},
		Effects: FixtureEffects{
			Result:               0,
			ComputeUnitsConsumed: 150,
			ResultingAccounts: []accounts.Account{
				{Key: sender, Lamports: 99958000, Data: []byte{}, Owner: solana.SystemProgramID},
				{Key: receiver, Lamports: 100042000, Data: []byte{}, Owner: solana.SystemProgramID},
			},
		},
	}
}

func TestFixture_BlobRoundTrip(t *testing.T) {
	original := testFixture(t)

	blob, err := Serialize(original)
	require.NoError(t, err)

	var decoded Fixture
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(blob)))
	assert.Equal(t, *original, decoded)
}

func TestFixture_DumpAndLoad(t *testing.T) {
	dir := t.TempDir()
	original := testFixture(t)

	path, err := DumpBlob(dir, original)
	require.NoError(t, err)
	assert.Equal(t, ".fix", filepath.Ext(path))

	var decoded Fixture
	require.NoError(t, LoadBlob(path, &decoded))
	assert.Equal(t, *original, decoded)

	jsonPath, err := DumpJSON(dir, original)
	require.NoError(t, err)

	var fromJSON Fixture
	require.NoError(t, LoadJSON(jsonPath, &fromJSON))
	assert.Equal(t, original.Effects.ComputeUnitsConsumed, fromJSON.Effects.ComputeUnitsConsumed)

	// blob and JSON dumps of the same call share a name stem
	assert.Equal(t,
		filepath.Base(path[:len(path)-len(".fix")]),
		filepath.Base(jsonPath[:len(jsonPath)-len(".json")]))
}

func TestFixture_FSEjector(t *testing.T) {
	dir := t.TempDir()
	ejector := &FSEjector{Dir: filepath.Join(dir, "ejected")}

	require.NoError(t, ejector.Eject(testFixture(t)))

	entries, err := os.ReadDir(ejector.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInstrFixture_BlobRoundTrip(t *testing.T) {
	original := &InstrFixture{
		Input: InstrContext{
			ProgramId: solana.SystemProgramID,
			Accounts: []AcctState{
				{Address: solana.SysVarClockPubkey, Lamports: 1, Data: []byte{1, 2, 3}, Owner: solana.SystemProgramID, RentEpoch: 100},
			},
			InstrAccounts: []InstrAcct{{Index: 0, IsSigner: true, IsWritable: true}},
			Data:          []byte{9, 9},
			CuAvail:       200000,
			SlotContext:   SlotContext{Slot: 7},
			EpochContext:  EpochContext{Features: FeatureSet{Features: []uint64{12345}}},
		},
		Output: InstrEffects{Result: 26, CustomErr: 1, CuAvail: 199850},
	}

	blob, err := Serialize(original)
	require.NoError(t, err)

	var decoded InstrFixture
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(blob)))
	assert.Equal(t, *original, decoded)
}
