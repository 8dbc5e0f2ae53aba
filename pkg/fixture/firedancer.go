package fixture

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// The firedancer interchange layout references instruction accounts by
// index into the input account list and identifies features by the first
// eight bytes of the gate address.

type AcctState struct {
	Address    solana.PublicKey `json:"address"`
	Lamports   uint64           `json:"lamports"`
	Data       []byte           `json:"data"`
	Executable bool             `json:"executable"`
	RentEpoch  uint64           `json:"rent_epoch"`
	Owner      solana.PublicKey `json:"owner"`
}

type InstrAcct struct {
	Index      uint32 `json:"index"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type FeatureSet struct {
	Features []uint64 `json:"features"`
}

type EpochContext struct {
	Features FeatureSet `json:"features"`
}

type SlotContext struct {
	Slot uint64 `json:"slot"`
}

type InstrContext struct {
	ProgramId     solana.PublicKey `json:"program_id"`
	Accounts      []AcctState      `json:"accounts"`
	InstrAccounts []InstrAcct      `json:"instr_accounts"`
	Data          []byte           `json:"data"`
	CuAvail       uint64           `json:"cu_avail"`
	EpochContext  EpochContext     `json:"epoch_context"`
	SlotContext   SlotContext      `json:"slot_context"`
}

type InstrEffects struct {
	Result           uint32      `json:"result"`
	CustomErr        uint32      `json:"custom_err"`
	ModifiedAccounts []AcctState `json:"modified_accounts"`
	CuAvail          uint64      `json:"cu_avail"`
	ReturnData       []byte      `json:"return_data"`
}

type InstrFixture struct {
	Input  InstrContext `json:"input"`
	Output InstrEffects `json:"output"`
}

// FeatureIdFromAddress derives the interchange feature identifier from a
// gate address.
func FeatureIdFromAddress(addr solana.PublicKey) uint64 {
	return binary.LittleEndian.Uint64(addr[:8])
}

func (acct *AcctState) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(acct.Address[:], false)
	if err != nil {
		return fmt.Errorf("failed to serialize Address for AcctState: %w", err)
	}

	err = encoder.WriteUint64(acct.Lamports, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Lamports for AcctState: %w", err)
	}

	err = encoder.WriteBytes(acct.Data, true)
	if err != nil {
		return fmt.Errorf("failed to serialize Data for AcctState: %w", err)
	}

	err = encoder.WriteBool(acct.Executable)
	if err != nil {
		return fmt.Errorf("failed to serialize Executable for AcctState: %w", err)
	}

	err = encoder.WriteUint64(acct.RentEpoch, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize RentEpoch for AcctState: %w", err)
	}

	err = encoder.WriteBytes(acct.Owner[:], false)
	if err != nil {
		return fmt.Errorf("failed to serialize Owner for AcctState: %w", err)
	}

	return nil
}

func (acct *AcctState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	address, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read Address when decoding AcctState: %w", err)
	}
	acct.Address = solana.PublicKeyFromBytes(address)

	acct.Lamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Lamports when decoding AcctState: %w", err)
	}

	acct.Data, err = decoder.ReadByteSlice()
	if err != nil {
		return fmt.Errorf("failed to read Data when decoding AcctState: %w", err)
	}

	acct.Executable, err = decoder.ReadBool()
	if err != nil {
		return fmt.Errorf("failed to read Executable when decoding AcctState: %w", err)
	}

	acct.RentEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read RentEpoch when decoding AcctState: %w", err)
	}

	owner, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read Owner when decoding AcctState: %w", err)
	}
	acct.Owner = solana.PublicKeyFromBytes(owner)

	return nil
}

func (ctx *InstrContext) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(ctx.ProgramId[:], false)
	if err != nil {
		return fmt.Errorf("failed to serialize ProgramId for InstrContext: %w", err)
	}

	err = encoder.WriteUint64(uint64(len(ctx.Accounts)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Accounts length for InstrContext: %w", err)
	}
	for idx := range ctx.Accounts {
		err = ctx.Accounts[idx].MarshalWithEncoder(encoder)
		if err != nil {
			return err
		}
	}

	err = encoder.WriteUint64(uint64(len(ctx.InstrAccounts)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize InstrAccounts length for InstrContext: %w", err)
	}
	for _, instrAcct := range ctx.InstrAccounts {
		err = encoder.WriteUint32(instrAcct.Index, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Index for InstrContext: %w", err)
		}
		err = encoder.WriteBool(instrAcct.IsSigner)
		if err != nil {
			return fmt.Errorf("failed to serialize IsSigner for InstrContext: %w", err)
		}
		err = encoder.WriteBool(instrAcct.IsWritable)
		if err != nil {
			return fmt.Errorf("failed to serialize IsWritable for InstrContext: %w", err)
		}
	}

	err = encoder.WriteBytes(ctx.Data, true)
	if err != nil {
		return fmt.Errorf("failed to serialize Data for InstrContext: %w", err)
	}

	err = encoder.WriteUint64(ctx.CuAvail, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize CuAvail for InstrContext: %w", err)
	}

	err = encoder.WriteUint64(uint64(len(ctx.EpochContext.Features.Features)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Features length for InstrContext: %w", err)
	}
	for _, featureId := range ctx.EpochContext.Features.Features {
		err = encoder.WriteUint64(featureId, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize a feature id for InstrContext: %w", err)
		}
	}

	err = encoder.WriteUint64(ctx.SlotContext.Slot, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Slot for InstrContext: %w", err)
	}

	return nil
}

func (ctx *InstrContext) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	programId, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read ProgramId when decoding InstrContext: %w", err)
	}
	ctx.ProgramId = solana.PublicKeyFromBytes(programId)

	numAccts, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Accounts length when decoding InstrContext: %w", err)
	}
	ctx.Accounts = nil
	for count := uint64(0); count < numAccts; count++ {
		var acct AcctState
		err = acct.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		ctx.Accounts = append(ctx.Accounts, acct)
	}

	numInstrAccts, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read InstrAccounts length when decoding InstrContext: %w", err)
	}
	ctx.InstrAccounts = nil
	for count := uint64(0); count < numInstrAccts; count++ {
		var instrAcct InstrAcct
		instrAcct.Index, err = decoder.ReadUint32(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Index when decoding InstrContext: %w", err)
		}
		instrAcct.IsSigner, err = decoder.ReadBool()
		if err != nil {
			return fmt.Errorf("failed to read IsSigner when decoding InstrContext: %w", err)
		}
		instrAcct.IsWritable, err = decoder.ReadBool()
		if err != nil {
			return fmt.Errorf("failed to read IsWritable when decoding InstrContext: %w", err)
		}
		ctx.InstrAccounts = append(ctx.InstrAccounts, instrAcct)
	}

	ctx.Data, err = decoder.ReadByteSlice()
	if err != nil {
		return fmt.Errorf("failed to read Data when decoding InstrContext: %w", err)
	}

	ctx.CuAvail, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read CuAvail when decoding InstrContext: %w", err)
	}

	numFeatures, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Features length when decoding InstrContext: %w", err)
	}
	ctx.EpochContext.Features.Features = nil
	for count := uint64(0); count < numFeatures; count++ {
		featureId, err := decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read a feature id when decoding InstrContext: %w", err)
		}
		ctx.EpochContext.Features.Features = append(ctx.EpochContext.Features.Features, featureId)
	}

	ctx.SlotContext.Slot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Slot when decoding InstrContext: %w", err)
	}

	return nil
}

func (effects *InstrEffects) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(effects.Result, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Result for InstrEffects: %w", err)
	}

	err = encoder.WriteUint32(effects.CustomErr, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize CustomErr for InstrEffects: %w", err)
	}

	err = encoder.WriteUint64(uint64(len(effects.ModifiedAccounts)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize ModifiedAccounts length for InstrEffects: %w", err)
	}
	for idx := range effects.ModifiedAccounts {
		err = effects.ModifiedAccounts[idx].MarshalWithEncoder(encoder)
		if err != nil {
			return err
		}
	}

	err = encoder.WriteUint64(effects.CuAvail, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize CuAvail for InstrEffects: %w", err)
	}

	err = encoder.WriteBytes(effects.ReturnData, true)
	if err != nil {
		return fmt.Errorf("failed to serialize ReturnData for InstrEffects: %w", err)
	}

	return nil
}

func (effects *InstrEffects) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	effects.Result, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Result when decoding InstrEffects: %w", err)
	}

	effects.CustomErr, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read CustomErr when decoding InstrEffects: %w", err)
	}

	numAccts, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ModifiedAccounts length when decoding InstrEffects: %w", err)
	}
	effects.ModifiedAccounts = nil
	for count := uint64(0); count < numAccts; count++ {
		var acct AcctState
		err = acct.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		effects.ModifiedAccounts = append(effects.ModifiedAccounts, acct)
	}

	effects.CuAvail, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read CuAvail when decoding InstrEffects: %w", err)
	}

	effects.ReturnData, err = decoder.ReadByteSlice()
	if err != nil {
		return fmt.Errorf("failed to read ReturnData when decoding InstrEffects: %w", err)
	}

	return nil
}

func (fixture *InstrFixture) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := fixture.Input.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	return fixture.Output.MarshalWithEncoder(encoder)
}

func (fixture *InstrFixture) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	err := fixture.Input.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}
	return fixture.Output.UnmarshalWithDecoder(decoder)
}
