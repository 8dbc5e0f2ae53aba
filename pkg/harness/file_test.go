package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProgramElf_SearchOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(second, "counter.so"), []byte{0x7f, 'E', 'L', 'F'}, 0o644))

	image, err := loadProgramElf("counter", []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7f, 'E', 'L', 'F'}, image)

	_, err = loadProgramElf("missing", []string{first, second})
	assert.ErrorIs(t, err, ErrProgramFileNotFound)
}

func TestNew_MissingProgramFile(t *testing.T) {
	programId := solana.MustPublicKeyFromBase58("Counter111111111111111111111111111111111111")

	_, err := New(programId, "definitely-not-there")
	require.ErrorIs(t, err, ErrProgramFileNotFound)
}

func TestAddProgram_RegistersImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counter.so"), []byte{0x7f, 'E', 'L', 'F'}, 0o644))

	programId := solana.MustPublicKeyFromBase58("Counter111111111111111111111111111111111111")
	h := Default().WithSearchPaths(dir)
	require.NoError(t, h.AddProgram(programId, "counter", sealevel.BpfLoaderUpgradeableAddr))

	entry, registered := h.Registry.Resolve(programId)
	require.True(t, registered)
	assert.NotEmpty(t, entry.Image)

	stub := h.ProgramAccount(programId)
	assert.True(t, stub.Executable)
	assert.Equal(t, sealevel.BpfLoaderUpgradeableAddr, stub.Owner)
}
