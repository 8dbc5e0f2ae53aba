// Package bencher measures compute unit consumption of instructions and
// tracks it across runs in a markdown report, so CU regressions show up
// in review.
package bencher

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Overclock-Validator/mussel/pkg/accounts"
	"github.com/Overclock-Validator/mussel/pkg/harness"
	"github.com/Overclock-Validator/mussel/pkg/sealevel"
	"github.com/alitto/pond"
	"k8s.io/klog/v2"
)

const defaultIterations = 25

// Bench is one named instruction to measure.
type Bench struct {
	Name        string
	Instruction sealevel.Instruction
	Accounts    []accounts.Account
}

type benchTally struct {
	totalUnits uint64
	runs       uint64
}

// Bencher accumulates benches and runs them against a harness. Configure
// with the chained mutators, then call Execute.
type Bencher struct {
	harness    *harness.Harness
	benches    []Bench
	mustPass   bool
	outDir     string
	iterations int
	workers    int
}

func New(h *harness.Harness) *Bencher {
	return &Bencher{
		harness:    h,
		outDir:     "benches",
		iterations: defaultIterations,
		workers:    runtime.NumCPU(),
	}
}

// Bench adds one instruction to measure.
func (b *Bencher) Bench(bench Bench) *Bencher {
	b.benches = append(b.benches, bench)
	return b
}

// MustPass makes Execute fail if any bench iteration does not succeed.
// Without it, failed iterations still report their compute units.
func (b *Bencher) MustPass() *Bencher {
	b.mustPass = true
	return b
}

// OutDir sets where the markdown report and its backing table land.
func (b *Bencher) OutDir(dir string) *Bencher {
	b.outDir = dir
	return b
}

// Iterations sets how many times each bench runs; the report carries the
// mean.
func (b *Bencher) Iterations(n int) *Bencher {
	if n > 0 {
		b.iterations = n
	}
	return b
}

// Execute runs every bench, iterations times each, across a worker pool,
// then updates the compute unit report.
func (b *Bencher) Execute() error {
	if len(b.benches) == 0 {
		return fmt.Errorf("no benches to execute")
	}

	tallies := make([]benchTally, len(b.benches))
	var mu sync.Mutex
	var failures []string

	pool := pond.New(b.workers, len(b.benches)*b.iterations)
	for idx := range b.benches {
		bench := &b.benches[idx]
		tally := &tallies[idx]
		for iter := 0; iter < b.iterations; iter++ {
			pool.Submit(func() {
				result, err := b.harness.ProcessInstruction(bench.Instruction, bench.Accounts)
				if err != nil {
					mu.Lock()
					failures = append(failures, fmt.Sprintf("%s: %s", bench.Name, err))
					mu.Unlock()
					return
				}
				if !result.ProgramResult.Succeeded() {
					klog.V(1).Infof("bench %s did not succeed: %s", bench.Name, result.ProgramResult.Err)
					if b.mustPass {
						mu.Lock()
						failures = append(failures, fmt.Sprintf("%s: %s", bench.Name, result.ProgramResult.Err))
						mu.Unlock()
						return
					}
				}
				atomic.AddUint64(&tally.totalUnits, result.ComputeUnitsConsumed)
				atomic.AddUint64(&tally.runs, 1)
			})
		}
	}
	pool.StopAndWait()

	if len(failures) != 0 {
		return fmt.Errorf("bench failures: %v", failures)
	}

	measurements := make([]Measurement, 0, len(b.benches))
	for idx := range b.benches {
		tally := &tallies[idx]
		var mean uint64
		if tally.runs != 0 {
			mean = tally.totalUnits / tally.runs
		}
		measurements = append(measurements, Measurement{
			Name:         b.benches[idx].Name,
			ComputeUnits: mean,
		})
	}

	return writeReport(b.outDir, measurements)
}
