package cu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMeter_Consume(t *testing.T) {
	meter := NewComputeMeter(1000)

	err := meter.Consume(400)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), meter.Used())
	assert.Equal(t, uint64(600), meter.Remaining())
	assert.False(t, meter.Exceeded())

	err = meter.Consume(600)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), meter.Used())
	assert.Equal(t, uint64(0), meter.Remaining())
	assert.False(t, meter.Exceeded())
}

func TestComputeMeter_Exceeded(t *testing.T) {
	meter := NewComputeMeter(100)

	err := meter.Consume(101)
	require.ErrorIs(t, err, ErrComputeExceeded)
	assert.True(t, meter.Exceeded())

	// the meter saturates rather than wrapping
	assert.Equal(t, uint64(0), meter.Remaining())
	assert.Equal(t, uint64(100), meter.Used())
}

func TestComputeMeter_FromBudget(t *testing.T) {
	budget := DefaultComputeBudget()
	meter := NewComputeMeterFromBudget(budget)

	assert.Equal(t, budget.ComputeUnitLimit, meter.Remaining())
	assert.Equal(t, uint64(0), meter.Used())
}

func TestDefaultComputeBudget(t *testing.T) {
	budget := DefaultComputeBudget()

	assert.Equal(t, uint64(1_400_000), budget.ComputeUnitLimit)
	assert.Equal(t, uint64(32*1024), budget.HeapSize)
	assert.Equal(t, uint64(5), budget.MaxInstructionStackDepth)
}
