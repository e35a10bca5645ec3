package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteState writes a state document to disk as JSON.
func WriteState(path string, doc SystemState) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadState loads a state document from disk.
func ReadState(path string) (SystemState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SystemState{}, err
	}
	var doc SystemState
	if err := json.Unmarshal(data, &doc); err != nil {
		return SystemState{}, err
	}
	return doc, nil
}

// CompareStates checks that two documents describe the same run
// outcome. Timestamps and run IDs are ignored; error messages match
// when one is a truncated prefix of the other.
func CompareStates(expected, actual SystemState) error {
	if expected.Status != actual.Status {
		return fmt.Errorf("status mismatch: expected=%s actual=%s", expected.Status, actual.Status)
	}
	if expected.CycleCount != actual.CycleCount {
		return fmt.Errorf("cycle count mismatch: expected=%d actual=%d", expected.CycleCount, actual.CycleCount)
	}
	if !errorTextMatches(expected.LastError, actual.LastError) {
		return fmt.Errorf("last error mismatch: expected=%q actual=%q", expected.LastError, actual.LastError)
	}
	if (expected.ShutdownAt > 0) != (actual.ShutdownAt > 0) {
		return fmt.Errorf("shutdown marker mismatch: expected=%d actual=%d", expected.ShutdownAt, actual.ShutdownAt)
	}
	return nil
}

func errorTextMatches(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}
