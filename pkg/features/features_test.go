package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The TestFeatures_EnableAndDisable function tests that the
// enable and disable features work correctly.
func TestFeatures_EnableAndDisable(t *testing.T) {
	f := NewFeaturesDefault()
	f.EnableFeature(StopTruncatingStringsInSyscalls, 0)
	assert.Equal(t, f.IsActive(StopTruncatingStringsInSyscalls), true)
	f.DisableFeature(StopTruncatingStringsInSyscalls)
	assert.Equal(t, f.IsActive(StopTruncatingStringsInSyscalls), false)
	f.EnableFeature(StopTruncatingStringsInSyscalls, 0)
	assert.Equal(t, f.IsActive(StopTruncatingStringsInSyscalls), true)
}

// The TestFeatures_ListEnabled function tests that the AllEnabled function
// works as expected.
func TestFeatures_ListEnabled(t *testing.T) {
	f := NewFeaturesDefault()
	f.EnableFeature(StopTruncatingStringsInSyscalls, 0)
	assert.Equal(t, f.AllEnabled(), []string{"feature StopTruncatingStringsInSyscalls (16FMCmgLzCNNz6eTwGanbyN2ZxvTBSLuQ6DZhgeMshg) enabled"})
}

func TestFeatures_CloneIsIndependent(t *testing.T) {
	f := NewFeaturesAllEnabled()
	c := f.Clone()
	c.DisableFeature(LastRestartSlotSysvar)
	assert.True(t, f.IsActive(LastRestartSlotSysvar))
	assert.False(t, c.IsActive(LastRestartSlotSysvar))

	slot, ok := f.ActivatedSlot(LastRestartSlotSysvar)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), slot)
}
