package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrProgramFileNotFound is returned when no search path holds the
// requested program ELF.
var ErrProgramFileNotFound = errors.New("program file not found")

// defaultSearchPaths mirrors the places cargo-build-sbf drops program
// binaries, plus the conventional tests/fixtures directory.
func defaultSearchPaths() []string {
	paths := []string{filepath.Join("tests", "fixtures")}
	if dir := os.Getenv("SBF_OUT_DIR"); dir != "" {
		paths = append(paths, dir)
	}
	if dir := os.Getenv("BPF_OUT_DIR"); dir != "" {
		paths = append(paths, dir)
	}
	paths = append(paths, ".")
	return paths
}

// loadProgramElf finds <name>.so in the search paths and returns its bytes.
func loadProgramElf(name string, searchPaths []string) ([]byte, error) {
	fileName := name + ".so"
	for _, dir := range searchPaths {
		path := filepath.Join(dir, fileName)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read program file %s: %w", path, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s in %v", ErrProgramFileNotFound, fileName, searchPaths)
}
