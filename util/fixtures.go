package util

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadFixture loads a raw JSON fixture from disk.
func ReadFixture(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	return data, nil
}

// ReadJSONFile loads and decodes a JSON file into a T.
func ReadJSONFile[T any](filePath string) (*T, error) {
	data, err := ReadFixture(filePath)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %q: %w", filePath, err)
	}
	return &out, nil
}
