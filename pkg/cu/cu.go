// Package cu implements compute-unit metering and budgets.
package cu

import (
	"errors"

	"github.com/Overclock-Validator/mussel/pkg/safemath"
)

var ErrComputeExceeded = errors.New("Compute exceeded")

// ComputeMeter is a decrementing compute-unit counter. It is the sole
// execution bound of a harness call: a program must halt with
// ErrComputeExceeded once the counter reaches zero.
type ComputeMeter struct {
	computeMeter    uint64
	startingBalance uint64
	exceeded        bool
}

func NewComputeMeter(budget uint64) ComputeMeter {
	return ComputeMeter{computeMeter: budget, startingBalance: budget}
}

func NewComputeMeterDefault() ComputeMeter {
	return NewComputeMeter(DefaultComputeBudget().ComputeUnitLimit)
}

func (cm *ComputeMeter) Consume(cost uint64) error {
	cm.exceeded = cm.computeMeter < cost
	cm.computeMeter = safemath.SaturatingSubU64(cm.computeMeter, cost)

	if cm.exceeded {
		return ErrComputeExceeded
	}

	return nil
}

func (cm *ComputeMeter) Used() uint64 {
	return cm.startingBalance - cm.computeMeter
}

func (cm *ComputeMeter) Exceeded() bool {
	return cm.exceeded
}

func (cm *ComputeMeter) Remaining() uint64 {
	return cm.computeMeter
}
