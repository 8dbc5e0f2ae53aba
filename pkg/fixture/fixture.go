// Package fixture holds the portable interchange formats for recorded
// instruction executions: a context (everything needed to reproduce a
// call) paired with its effects (everything the call produced).
package fixture

import (
	"fmt"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Fixture is one recorded instruction execution in the native layout.
type Fixture struct {
	Context FixtureContext `json:"context"`
	Effects FixtureEffects `json:"effects"`
}

type FixtureAccountMeta struct {
	Pubkey     solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"is_signer"`
	IsWritable bool             `json:"is_writable"`
}

// FixtureContext captures the harness environment and the instruction
// under execution.
type FixtureContext struct {
	ComputeUnitLimit uint64               `json:"compute_unit_limit"`
	Slot             uint64               `json:"slot"`
	FeatureAddrs     []solana.PublicKey   `json:"feature_addrs"`
	ProgramId        solana.PublicKey     `json:"program_id"`
	InstrAccounts    []FixtureAccountMeta `json:"instr_accounts"`
	Data             []byte               `json:"data"`
	Accounts         []accounts.Account   `json:"accounts"`
}

// FixtureEffects captures what the execution produced. Result follows the
// Solana numerical error code convention: 0 for success, 26 for a custom
// program error with CustomErr carrying the program's code.
type FixtureEffects struct {
	Result               uint32             `json:"result"`
	CustomErr            uint32             `json:"custom_err"`
	ComputeUnitsConsumed uint64             `json:"compute_units_consumed"`
	ExecutionTime        uint64             `json:"execution_time_ns"`
	ReturnData           []byte             `json:"return_data"`
	ResultingAccounts    []accounts.Account `json:"resulting_accounts"`
}

func (ctx *FixtureContext) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(ctx.ComputeUnitLimit, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize ComputeUnitLimit for FixtureContext: %w", err)
	}

	err = encoder.WriteUint64(ctx.Slot, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Slot for FixtureContext: %w", err)
	}

	err = encoder.WriteUint64(uint64(len(ctx.FeatureAddrs)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize FeatureAddrs length for FixtureContext: %w", err)
	}
	for _, addr := range ctx.FeatureAddrs {
		err = encoder.WriteBytes(addr[:], false)
		if err != nil {
			return fmt.Errorf("failed to serialize a feature address for FixtureContext: %w", err)
		}
	}

	err = encoder.WriteBytes(ctx.ProgramId[:], false)
	if err != nil {
		return fmt.Errorf("failed to serialize ProgramId for FixtureContext: %w", err)
	}

	err = encoder.WriteUint64(uint64(len(ctx.InstrAccounts)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize InstrAccounts length for FixtureContext: %w", err)
	}
	for _, meta := range ctx.InstrAccounts {
		err = encoder.WriteBytes(meta.Pubkey[:], false)
		if err != nil {
			return fmt.Errorf("failed to serialize an account meta for FixtureContext: %w", err)
		}
		err = encoder.WriteBool(meta.IsSigner)
		if err != nil {
			return fmt.Errorf("failed to serialize IsSigner for FixtureContext: %w", err)
		}
		err = encoder.WriteBool(meta.IsWritable)
		if err != nil {
			return fmt.Errorf("failed to serialize IsWritable for FixtureContext: %w", err)
		}
	}

	err = encoder.WriteBytes(ctx.Data, true)
	if err != nil {
		return fmt.Errorf("failed to serialize Data for FixtureContext: %w", err)
	}

	err = encoder.WriteUint64(uint64(len(ctx.Accounts)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Accounts length for FixtureContext: %w", err)
	}
	for idx := range ctx.Accounts {
		err = ctx.Accounts[idx].MarshalWithEncoder(encoder)
		if err != nil {
			return fmt.Errorf("failed to serialize an account for FixtureContext: %w", err)
		}
	}

	return nil
}

func (ctx *FixtureContext) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	ctx.ComputeUnitLimit, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ComputeUnitLimit when decoding FixtureContext: %w", err)
	}

	ctx.Slot, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Slot when decoding FixtureContext: %w", err)
	}

	numFeatures, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read FeatureAddrs length when decoding FixtureContext: %w", err)
	}
	ctx.FeatureAddrs = nil
	for count := uint64(0); count < numFeatures; count++ {
		addrBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return fmt.Errorf("failed to read a feature address when decoding FixtureContext: %w", err)
		}
		ctx.FeatureAddrs = append(ctx.FeatureAddrs, solana.PublicKeyFromBytes(addrBytes))
	}

	programId, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("failed to read ProgramId when decoding FixtureContext: %w", err)
	}
	ctx.ProgramId = solana.PublicKeyFromBytes(programId)

	numInstrAccts, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read InstrAccounts length when decoding FixtureContext: %w", err)
	}
	ctx.InstrAccounts = nil
	for count := uint64(0); count < numInstrAccts; count++ {
		var meta FixtureAccountMeta
		pk, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return fmt.Errorf("failed to read an account meta when decoding FixtureContext: %w", err)
		}
		meta.Pubkey = solana.PublicKeyFromBytes(pk)
		meta.IsSigner, err = decoder.ReadBool()
		if err != nil {
			return fmt.Errorf("failed to read IsSigner when decoding FixtureContext: %w", err)
		}
		meta.IsWritable, err = decoder.ReadBool()
		if err != nil {
			return fmt.Errorf("failed to read IsWritable when decoding FixtureContext: %w", err)
		}
		ctx.InstrAccounts = append(ctx.InstrAccounts, meta)
	}

	ctx.Data, err = decoder.ReadByteSlice()
	if err != nil {
		return fmt.Errorf("failed to read Data when decoding FixtureContext: %w", err)
	}

	numAccts, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Accounts length when decoding FixtureContext: %w", err)
	}
	ctx.Accounts = nil
	for count := uint64(0); count < numAccts; count++ {
		var acct accounts.Account
		err = acct.UnmarshalWithDecoder(decoder)
		if err != nil {
			return fmt.Errorf("failed to read an account when decoding FixtureContext: %w", err)
		}
		ctx.Accounts = append(ctx.Accounts, acct)
	}

	return nil
}

func (effects *FixtureEffects) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(effects.Result, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize Result for FixtureEffects: %w", err)
	}

	err = encoder.WriteUint32(effects.CustomErr, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize CustomErr for FixtureEffects: %w", err)
	}

	err = encoder.WriteUint64(effects.ComputeUnitsConsumed, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize ComputeUnitsConsumed for FixtureEffects: %w", err)
	}

	err = encoder.WriteUint64(effects.ExecutionTime, bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize ExecutionTime for FixtureEffects: %w", err)
	}

	err = encoder.WriteBytes(effects.ReturnData, true)
	if err != nil {
		return fmt.Errorf("failed to serialize ReturnData for FixtureEffects: %w", err)
	}

	err = encoder.WriteUint64(uint64(len(effects.ResultingAccounts)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize ResultingAccounts length for FixtureEffects: %w", err)
	}
	for idx := range effects.ResultingAccounts {
		err = effects.ResultingAccounts[idx].MarshalWithEncoder(encoder)
		if err != nil {
			return fmt.Errorf("failed to serialize a resulting account for FixtureEffects: %w", err)
		}
	}

	return nil
}

func (effects *FixtureEffects) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	effects.Result, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read Result when decoding FixtureEffects: %w", err)
	}

	effects.CustomErr, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read CustomErr when decoding FixtureEffects: %w", err)
	}

	effects.ComputeUnitsConsumed, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ComputeUnitsConsumed when decoding FixtureEffects: %w", err)
	}

	effects.ExecutionTime, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExecutionTime when decoding FixtureEffects: %w", err)
	}

	effects.ReturnData, err = decoder.ReadByteSlice()
	if err != nil {
		return fmt.Errorf("failed to read ReturnData when decoding FixtureEffects: %w", err)
	}

	numAccts, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ResultingAccounts length when decoding FixtureEffects: %w", err)
	}
	effects.ResultingAccounts = nil
	for count := uint64(0); count < numAccts; count++ {
		var acct accounts.Account
		err = acct.UnmarshalWithDecoder(decoder)
		if err != nil {
			return fmt.Errorf("failed to read a resulting account when decoding FixtureEffects: %w", err)
		}
		effects.ResultingAccounts = append(effects.ResultingAccounts, acct)
	}

	return nil
}

func (fixture *Fixture) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := fixture.Context.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	return fixture.Effects.MarshalWithEncoder(encoder)
}

func (fixture *Fixture) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	err := fixture.Context.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}
	return fixture.Effects.UnmarshalWithDecoder(decoder)
}
