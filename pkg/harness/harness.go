// Package harness runs single Solana instructions against a minimal
// instruction-processing environment and reports what they did: compute
// units consumed, resulting account state, logs and return data. It is
// the core of mussel; tests drive it directly or through the check and
// fixture layers built on top.
package harness

import (
	"fmt"

	"github.com/Overclock-Validator/mussel/pkg/cu"
	"github.com/Overclock-Validator/mussel/pkg/features"
	"github.com/Overclock-Validator/mussel/pkg/fixture"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/Overclock-Validator/mussel/pkg/sysvars"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// Harness holds the instruction-processing environment: compute budget,
// feature set, sysvar state and the program registry. A zero Harness is
// not usable; construct one with Default or New.
type Harness struct {
	ComputeBudget cu.ComputeBudget
	Features      *features.Features
	Sysvars       *sysvars.Sysvars
	Registry      *sealevel.ProgramRegistry
	VM            sealevel.VM
	Sink          fixture.Sink

	searchPaths []string
}

// Default returns a harness with the default compute budget, every known
// feature enabled, default sysvars and only the builtin programs
// registered.
func Default() *Harness {
	return &Harness{
		ComputeBudget: cu.DefaultComputeBudget(),
		Features:      features.NewFeaturesAllEnabled(),
		Sysvars:       sysvars.NewSysvarsDefault(),
		Registry:      sealevel.NewProgramRegistry(),
		searchPaths:   defaultSearchPaths(),
	}
}

// New returns a default harness with the program ELF <name>.so loaded
// from the search paths and registered under programId.
func New(programId solana.PublicKey, name string) (*Harness, error) {
	h := Default()
	if err := h.AddProgram(programId, name, sealevel.BpfLoaderUpgradeableAddr); err != nil {
		return nil, err
	}
	return h, nil
}

// MustNew is New, panicking on error. Intended for test setup.
func MustNew(programId solana.PublicKey, name string) *Harness {
	h, err := New(programId, name)
	if err != nil {
		panic(fmt.Sprintf("unable to build harness for %s: %s", programId, err))
	}
	return h
}

func (h *Harness) WithComputeBudget(budget cu.ComputeBudget) *Harness {
	h.ComputeBudget = budget
	return h
}

func (h *Harness) WithFeatures(f *features.Features) *Harness {
	h.Features = f
	return h
}

func (h *Harness) WithSysvars(sv *sysvars.Sysvars) *Harness {
	h.Sysvars = sv
	return h
}

// WithVM installs the virtual machine used to execute non-builtin program
// images. Without one, instructions aimed at a registered image fail with
// an unsupported-program error.
func (h *Harness) WithVM(vm sealevel.VM) *Harness {
	h.VM = vm
	return h
}

// WithFixtureSink routes a fixture capture of every processed instruction
// to sink. Pass nil to stop capturing.
func (h *Harness) WithFixtureSink(sink fixture.Sink) *Harness {
	h.Sink = sink
	return h
}

// WithSearchPaths replaces the program ELF search paths.
func (h *Harness) WithSearchPaths(paths ...string) *Harness {
	h.searchPaths = paths
	return h
}

// AddProgram loads <name>.so from the search paths and registers it under
// programId with the given loader.
func (h *Harness) AddProgram(programId solana.PublicKey, name string, loader solana.PublicKey) error {
	image, err := loadProgramElf(name, h.searchPaths)
	if err != nil {
		return err
	}
	klog.V(1).Infof("registering program %s (%s, %d bytes)", programId, name, len(image))
	h.Registry.RegisterImage(programId, loader, image)
	return nil
}

// AddProgramWithImage registers an already-loaded program image.
func (h *Harness) AddProgramWithImage(programId solana.PublicKey, loader solana.PublicKey, image []byte) {
	h.Registry.RegisterImage(programId, loader, image)
}

// AddBuiltin registers a native Go program function under programId.
func (h *Harness) AddBuiltin(programId solana.PublicKey, fn sealevel.ProgramFn) {
	h.Registry.RegisterBuiltin(programId, fn)
}

// WarpToSlot moves the sysvar clock to the given slot, recomputing the
// epoch from the epoch schedule and recording the slot hash.
func (h *Harness) WarpToSlot(slot uint64) {
	h.Sysvars.WarpToSlot(slot)
}
