// Package features manages the set of optional runtime behavior flags
// active in a harness environment.
package features

import (
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// Features is a set of active feature gates with their activation slots.
type Features struct {
	active map[solana.PublicKey]uint64
	names  map[solana.PublicKey]string
}

// NewFeaturesDefault returns a feature set with no gates active.
func NewFeaturesDefault() *Features {
	return &Features{
		active: make(map[solana.PublicKey]uint64),
		names:  make(map[solana.PublicKey]string),
	}
}

// NewFeaturesAllEnabled returns a feature set with every registered gate
// active as of slot 0.
func NewFeaturesAllEnabled() *Features {
	f := NewFeaturesDefault()
	for _, gate := range AllGates {
		f.EnableFeature(gate, 0)
	}
	return f
}

func (f *Features) EnableFeature(gate FeatureGate, slot uint64) {
	f.active[gate.Address] = slot
	f.names[gate.Address] = gate.Name
}

func (f *Features) DisableFeature(gate FeatureGate) {
	delete(f.active, gate.Address)
	delete(f.names, gate.Address)
}

// EnableFeatureByAddress activates a gate known only by address, as when
// restoring a feature set from a fixture. Registered gates keep their name.
func (f *Features) EnableFeatureByAddress(addr solana.PublicKey, slot uint64) {
	for _, gate := range AllGates {
		if gate.Address == addr {
			f.EnableFeature(gate, slot)
			return
		}
	}
	f.active[addr] = slot
	f.names[addr] = addr.String()
}

func (f *Features) IsActive(gate FeatureGate) bool {
	_, ok := f.active[gate.Address]
	return ok
}

// ActivatedSlot reports the slot a gate became active at.
func (f *Features) ActivatedSlot(gate FeatureGate) (uint64, bool) {
	slot, ok := f.active[gate.Address]
	return slot, ok
}

// ActiveAddresses returns the active gate addresses in stable order.
func (f *Features) ActiveAddresses() []solana.PublicKey {
	addrs := make([]solana.PublicKey, 0, len(f.active))
	for addr := range f.active {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].String() < addrs[j].String()
	})
	return addrs
}

// AllEnabled describes every active gate, for diagnostics.
func (f *Features) AllEnabled() []string {
	descrs := make([]string, 0, len(f.active))
	for _, addr := range f.ActiveAddresses() {
		descrs = append(descrs, fmt.Sprintf("feature %s (%s) enabled", f.names[addr], addr))
	}
	return descrs
}

func (f *Features) Clone() *Features {
	c := NewFeaturesDefault()
	for addr, slot := range f.active {
		c.active[addr] = slot
		c.names[addr] = f.names[addr]
	}
	return c
}
