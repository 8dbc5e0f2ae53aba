package fixture

import (
	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/features"
	"github.com/gagliardetto/solana-go"
)

// featureAddrFromId maps an interchange feature identifier back to the
// gate address, for the gates this runtime knows about. Unknown ids are
// dropped; they cannot affect execution here anyway.
func featureAddrFromId(id uint64) (solana.PublicKey, bool) {
	for _, gate := range features.AllGates {
		if FeatureIdFromAddress(gate.Address) == id {
			return gate.Address, true
		}
	}
	return solana.PublicKey{}, false
}

func acctStateToAccount(state *AcctState) accounts.Account {
	return accounts.Account{
		Key:        state.Address,
		Lamports:   state.Lamports,
		Data:       state.Data,
		Owner:      state.Owner,
		Executable: state.Executable,
		RentEpoch:  state.RentEpoch,
	}
}

func accountToAcctState(acct *accounts.Account) AcctState {
	return AcctState{
		Address:    acct.Key,
		Lamports:   acct.Lamports,
		Data:       acct.Data,
		Executable: acct.Executable,
		RentEpoch:  acct.RentEpoch,
		Owner:      acct.Owner,
	}
}

// Native converts a firedancer interchange fixture into the native layout.
func (fix *InstrFixture) Native() *Fixture {
	native := &Fixture{
		Context: FixtureContext{
			ComputeUnitLimit: fix.Input.CuAvail,
			Slot:             fix.Input.SlotContext.Slot,
			ProgramId:        fix.Input.ProgramId,
			Data:             fix.Input.Data,
		},
		Effects: FixtureEffects{
			Result:     fix.Output.Result,
			CustomErr:  fix.Output.CustomErr,
			ReturnData: fix.Output.ReturnData,
		},
	}

	for _, id := range fix.Input.EpochContext.Features.Features {
		if addr, known := featureAddrFromId(id); known {
			native.Context.FeatureAddrs = append(native.Context.FeatureAddrs, addr)
		}
	}

	for idx := range fix.Input.Accounts {
		native.Context.Accounts = append(native.Context.Accounts, acctStateToAccount(&fix.Input.Accounts[idx]))
	}

	for _, instrAcct := range fix.Input.InstrAccounts {
		if uint64(instrAcct.Index) >= uint64(len(fix.Input.Accounts)) {
			continue
		}
		native.Context.InstrAccounts = append(native.Context.InstrAccounts, FixtureAccountMeta{
			Pubkey:     fix.Input.Accounts[instrAcct.Index].Address,
			IsSigner:   instrAcct.IsSigner,
			IsWritable: instrAcct.IsWritable,
		})
	}

	if fix.Input.CuAvail >= fix.Output.CuAvail {
		native.Effects.ComputeUnitsConsumed = fix.Input.CuAvail - fix.Output.CuAvail
	}

	for idx := range fix.Output.ModifiedAccounts {
		native.Effects.ResultingAccounts = append(native.Effects.ResultingAccounts, acctStateToAccount(&fix.Output.ModifiedAccounts[idx]))
	}

	return native
}

// Firedancer converts a native fixture into the firedancer interchange
// layout. Instruction accounts missing from the context account list are
// appended as empty stubs so every meta stays representable by index.
func (fix *Fixture) Firedancer() *InstrFixture {
	fd := &InstrFixture{
		Input: InstrContext{
			ProgramId:   fix.Context.ProgramId,
			Data:        fix.Context.Data,
			CuAvail:     fix.Context.ComputeUnitLimit,
			SlotContext: SlotContext{Slot: fix.Context.Slot},
		},
		Output: InstrEffects{
			Result:     fix.Effects.Result,
			CustomErr:  fix.Effects.CustomErr,
			ReturnData: fix.Effects.ReturnData,
		},
	}

	for _, addr := range fix.Context.FeatureAddrs {
		fd.Input.EpochContext.Features.Features = append(fd.Input.EpochContext.Features.Features, FeatureIdFromAddress(addr))
	}

	indexByKey := make(map[solana.PublicKey]uint32)
	for idx := range fix.Context.Accounts {
		fd.Input.Accounts = append(fd.Input.Accounts, accountToAcctState(&fix.Context.Accounts[idx]))
		indexByKey[fix.Context.Accounts[idx].Key] = uint32(idx)
	}

	for _, meta := range fix.Context.InstrAccounts {
		index, present := indexByKey[meta.Pubkey]
		if !present {
			index = uint32(len(fd.Input.Accounts))
			indexByKey[meta.Pubkey] = index
			fd.Input.Accounts = append(fd.Input.Accounts, AcctState{Address: meta.Pubkey})
		}
		fd.Input.InstrAccounts = append(fd.Input.InstrAccounts, InstrAcct{
			Index:      index,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}

	if fix.Context.ComputeUnitLimit >= fix.Effects.ComputeUnitsConsumed {
		fd.Output.CuAvail = fix.Context.ComputeUnitLimit - fix.Effects.ComputeUnitsConsumed
	}

	for idx := range fix.Effects.ResultingAccounts {
		fd.Output.ModifiedAccounts = append(fd.Output.ModifiedAccounts, accountToAcctState(&fix.Effects.ResultingAccounts[idx]))
	}

	return fd
}
