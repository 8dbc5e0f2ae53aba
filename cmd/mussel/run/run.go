// Package run implements the fixture runner subcommand: it replays
// recorded instruction fixtures against the builtin programs and reports
// every divergence from the recorded effects.
package run

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Overclock-Validator/mussel/pkg/fixture"
	"github.com/Overclock-Validator/mussel/pkg/harness"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "run [paths]",
		Short: "Replay instruction fixtures and validate their effects",
		Args:  cobra.MinimumNArgs(1),
		Run:   runFixtures,
	}

	layout     string
	jsonLayout bool
	configPath string
	jobs       int
)

func init() {
	Cmd.Flags().StringVarP(&layout, "layout", "l", "native", "Fixture layout: native or firedancer")
	Cmd.Flags().BoolVarP(&jsonLayout, "json", "j", false, "Read fixtures as JSON instead of binary blobs")
	Cmd.Flags().StringVarP(&configPath, "config", "c", "", "Runner config file (YAML)")
	Cmd.Flags().IntVarP(&jobs, "jobs", "n", 8, "Number of fixtures to replay concurrently")
}

// RunConfig tunes the replay environment and which effect fields count.
type RunConfig struct {
	ComputeUnitLimit uint64   `yaml:"compute_unit_limit"`
	Checks           []string `yaml:"checks"`
}

func loadConfig(path string) (*RunConfig, error) {
	cfg := new(RunConfig)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *RunConfig) fixtureChecks() ([]harness.FixtureCheck, error) {
	if len(cfg.Checks) == 0 {
		return harness.AllFixtureChecks(), nil
	}
	var checks []harness.FixtureCheck
	for _, name := range cfg.Checks {
		switch name {
		case "result":
			checks = append(checks, harness.FixtureCheckResult)
		case "compute_units":
			checks = append(checks, harness.FixtureCheckComputeUnits)
		case "return_data":
			checks = append(checks, harness.FixtureCheckReturnData)
		case "resulting_accounts":
			checks = append(checks, harness.FixtureCheckResultingAccounts)
		default:
			return nil, fmt.Errorf("unknown check %q", name)
		}
	}
	return checks, nil
}

// collectFixtureFiles expands the given paths into fixture files, walking
// directories recursively.
func collectFixtureFiles(paths []string, wantJSON bool) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(entryPath string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			ext := filepath.Ext(entryPath)
			if (wantJSON && ext == ".json") || (!wantJSON && ext == ".fix") {
				files = append(files, entryPath)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}
	return files, nil
}

func loadFixture(path string, wantJSON bool, fdLayout bool) (*fixture.Fixture, error) {
	if fdLayout {
		fd := new(fixture.InstrFixture)
		var err error
		if wantJSON {
			err = fixture.LoadJSON(path, fd)
		} else {
			err = fixture.LoadBlob(path, fd)
		}
		if err != nil {
			return nil, err
		}
		return fd.Native(), nil
	}

	fix := new(fixture.Fixture)
	var err error
	if wantJSON {
		err = fixture.LoadJSON(path, fix)
	} else {
		err = fixture.LoadBlob(path, fix)
	}
	if err != nil {
		return nil, err
	}
	return fix, nil
}

func runFixtures(c *cobra.Command, args []string) {
	if layout != "native" && layout != "firedancer" {
		klog.Exitf("unknown fixture layout %q", layout)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		klog.Exitf("%s", err)
	}
	checks, err := cfg.fixtureChecks()
	if err != nil {
		klog.Exitf("%s", err)
	}

	files, err := collectFixtureFiles(args, jsonLayout)
	if err != nil {
		klog.Exitf("%s", err)
	}
	if len(files) == 0 {
		klog.Exitf("no fixture files found under %v", args)
	}

	h := harness.Default()
	if cfg.ComputeUnitLimit != 0 {
		budget := h.ComputeBudget
		budget.ComputeUnitLimit = cfg.ComputeUnitLimit
		h.WithComputeBudget(budget)
	}

	progress := mpb.New(mpb.WithWidth(64))
	bar := progress.AddBar(int64(len(files)),
		mpb.PrependDecorators(
			decor.Name("fixtures "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	var mu sync.Mutex
	var divergences []string

	group, ctx := errgroup.WithContext(c.Context())
	group.SetLimit(jobs)
	for _, file := range files {
		file := file
		group.Go(func() error {
			defer bar.Increment()
			if ctx.Err() != nil {
				return ctx.Err()
			}

			fix, loadErr := loadFixture(file, jsonLayout, layout == "firedancer")
			if loadErr != nil {
				return fmt.Errorf("%s: %w", file, loadErr)
			}

			if _, validateErr := h.ProcessAndPartiallyValidateFixture(fix, checks...); validateErr != nil {
				mu.Lock()
				divergences = append(divergences, fmt.Sprintf("%s: %s", file, validateErr))
				mu.Unlock()
			}
			return nil
		})
	}

	err = group.Wait()
	progress.Wait()
	if err != nil {
		klog.Exitf("fixture replay aborted: %s", err)
	}

	if len(divergences) != 0 {
		for _, divergence := range divergences {
			klog.Errorf("%s", divergence)
		}
		klog.Exitf("%d of %d fixtures diverged", len(divergences), len(files))
	}

	klog.Infof("all %d fixtures matched recorded effects", len(files))
}
