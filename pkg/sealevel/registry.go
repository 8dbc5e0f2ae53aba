package sealevel

import (
	"github.com/Overclock-Validator/mussel/pkg/base58"
	"github.com/gagliardetto/solana-go"
)

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = base58.MustDecodeFromString(NativeLoaderAddrStr)

const BpfLoaderUpgradeableAddrStr = "BPFLoaderUpgradeab1e11111111111111111111111"

var BpfLoaderUpgradeableAddr = base58.MustDecodeFromString(BpfLoaderUpgradeableAddrStr)

const BpfLoaderAddrStr = "BPFLoader2111111111111111111111111111111111"

var BpfLoaderAddr = base58.MustDecodeFromString(BpfLoaderAddrStr)

const BpfLoaderDeprecatedAddrStr = "BPFLoader1111111111111111111111111111111111"

var BpfLoaderDeprecatedAddr = base58.MustDecodeFromString(BpfLoaderDeprecatedAddrStr)

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = base58.MustDecodeFromString(SystemProgramAddrStr)

// ProgramFn is a builtin program entrypoint.
type ProgramFn func(execCtx *ExecutionCtx) error

// VM executes a loaded program image. Implementations are supplied by the
// embedder; the runtime itself ships none.
type VM interface {
	Invoke(execCtx *ExecutionCtx, programId solana.PublicKey, image []byte) error
}

// ProgramEntry is one registered program: either a builtin entrypoint or a
// program image to be run on the configured VM.
type ProgramEntry struct {
	Builtin ProgramFn
	Image   []byte
	Loader  solana.PublicKey
}

// ProgramRegistry maps program ids to their executable form.
type ProgramRegistry struct {
	entries map[solana.PublicKey]*ProgramEntry
}

// NewProgramRegistry returns a registry preloaded with the builtin
// programs every environment carries.
func NewProgramRegistry() *ProgramRegistry {
	registry := &ProgramRegistry{entries: make(map[solana.PublicKey]*ProgramEntry)}
	registry.RegisterBuiltin(SystemProgramAddr, SystemProgramExecute)
	return registry
}

func (registry *ProgramRegistry) RegisterBuiltin(programId solana.PublicKey, fn ProgramFn) {
	registry.entries[programId] = &ProgramEntry{Builtin: fn, Loader: NativeLoaderAddr}
}

func (registry *ProgramRegistry) RegisterImage(programId solana.PublicKey, loader solana.PublicKey, image []byte) {
	registry.entries[programId] = &ProgramEntry{Image: image, Loader: loader}
}

func (registry *ProgramRegistry) Resolve(programId solana.PublicKey) (*ProgramEntry, bool) {
	entry, ok := registry.entries[programId]
	return entry, ok
}

// ProgramIds lists every registered program id.
func (registry *ProgramRegistry) ProgramIds() []solana.PublicKey {
	ids := make([]solana.PublicKey, 0, len(registry.entries))
	for id := range registry.entries {
		ids = append(ids, id)
	}
	return ids
}
