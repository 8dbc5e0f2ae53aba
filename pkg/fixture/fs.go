package fixture

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bin "github.com/gagliardetto/binary"
)

type binCodec interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
	UnmarshalWithDecoder(decoder *bin.Decoder) error
}

// Serialize renders a fixture (either layout) to its binary blob form.
func Serialize(f binCodec) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := f.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadBlob reads a binary fixture file into f.
func LoadBlob(path string, f binCodec) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture file %s: %w", path, err)
	}
	if err = f.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return fmt.Errorf("failed to decode fixture file %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads a JSON fixture file into f.
func LoadJSON(path string, f any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture file %s: %w", path, err)
	}
	if err = json.Unmarshal(data, f); err != nil {
		return fmt.Errorf("failed to decode fixture file %s: %w", path, err)
	}
	return nil
}

// DumpBlob writes the fixture to dir as a binary blob named by the SHA-256
// of its contents, returning the written path.
func DumpBlob(dir string, f binCodec) (string, error) {
	blob, err := Serialize(f)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(blob)
	path := filepath.Join(dir, hex.EncodeToString(sum[:])+".fix")
	if err = os.WriteFile(path, blob, 0644); err != nil {
		return "", fmt.Errorf("failed to write fixture file %s: %w", path, err)
	}
	return path, nil
}

// DumpJSON writes the fixture to dir as JSON, named by the SHA-256 of the
// equivalent binary blob so blob and JSON dumps of one call share a stem.
func DumpJSON(dir string, f binCodec) (string, error) {
	blob, err := Serialize(f)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(blob)
	path := filepath.Join(dir, hex.EncodeToString(sum[:])+".json")
	if err = os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write fixture file %s: %w", path, err)
	}
	return path, nil
}

// Sink receives every recorded execution from a harness. Implementations
// decide where fixtures go.
type Sink interface {
	Eject(fixture *Fixture) error
}

// FSEjector is a Sink that writes each fixture into Dir, as JSON when JSON
// is set and as a binary blob otherwise.
type FSEjector struct {
	Dir  string
	JSON bool
}

func (e *FSEjector) Eject(fixture *Fixture) error {
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create fixture directory %s: %w", e.Dir, err)
	}
	if e.JSON {
		_, err := DumpJSON(e.Dir, fixture)
		return err
	}
	_, err := DumpBlob(e.Dir, fixture)
	return err
}
