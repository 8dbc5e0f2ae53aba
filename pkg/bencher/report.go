package bencher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"k8s.io/klog/v2"
)

const (
	mdFileName   = "compute_units.md"
	jsonFileName = "compute_units.json"
)

// Measurement is one bench's mean compute unit consumption.
type Measurement struct {
	Name         string `json:"name"`
	ComputeUnits uint64 `json:"compute_units"`
}

// writeReport compares measurements against the previous run and, when
// anything changed, prepends a dated table to the markdown report. The
// raw numbers always land in the JSON table for the next comparison.
func writeReport(outDir string, measurements []Measurement) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create bench output dir %s: %w", outDir, err)
	}

	previous, err := loadPrevious(filepath.Join(outDir, jsonFileName))
	if err != nil {
		return err
	}

	table, changed := renderTable(measurements, previous)
	if changed {
		if err = prependSection(filepath.Join(outDir, mdFileName), table); err != nil {
			return err
		}
	} else {
		klog.V(1).Infof("compute units unchanged, report not updated")
	}

	return storeCurrent(filepath.Join(outDir, jsonFileName), measurements)
}

func loadPrevious(path string) (map[string]uint64, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read previous bench table %s: %w", path, err)
	}

	var entries []Measurement
	if err = json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse previous bench table %s: %w", path, err)
	}

	previous := make(map[string]uint64, len(entries))
	for _, entry := range entries {
		previous[entry.Name] = entry.ComputeUnits
	}
	return previous, nil
}

func storeCurrent(path string, measurements []Measurement) error {
	data, err := json.MarshalIndent(measurements, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize bench table: %w", err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bench table %s: %w", path, err)
	}
	return nil
}

// renderTable builds the markdown section and reports whether any bench
// is new or moved relative to the previous run.
func renderTable(measurements []Measurement, previous map[string]uint64) (string, bool) {
	printer := message.NewPrinter(language.English)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#### Compute Units: %s\n\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString("| Name | CUs | Delta |\n")
	sb.WriteString("|------|-----|-------|\n")

	changed := false
	for _, m := range measurements {
		var delta string
		prev, known := previous[m.Name]
		switch {
		case !known:
			delta = "- new -"
			changed = true
		case prev == m.ComputeUnits:
			delta = "--"
		case m.ComputeUnits > prev:
			delta = printer.Sprintf("+%d", m.ComputeUnits-prev)
			changed = true
		default:
			delta = printer.Sprintf("-%d", prev-m.ComputeUnits)
			changed = true
		}
		sb.WriteString(printer.Sprintf("| %s | %d | %s |\n", m.Name, m.ComputeUnits, delta))
	}
	sb.WriteString("\n")

	return sb.String(), changed
}

// prependSection puts the newest table on top so the report reads newest
// first.
func prependSection(path string, section string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read bench report %s: %w", path, err)
	}

	content := append([]byte(section), existing...)
	if err = os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write bench report %s: %w", path, err)
	}
	return nil
}
