package wmi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeInstances parses the JSON document a class query writes to stdout.
// ConvertTo-Json collapses a single instance into a bare object rather than
// a one-element array, so both forms are accepted. Empty output means the
// class enumerated no instances and yields an empty slice, not an error.
func DecodeInstances[T any](output string) ([]T, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	var instances []T
	if err := json.Unmarshal([]byte(output), &instances); err != nil {
		// Single-instance output: retry as a bare object
		var single T
		if err := json.Unmarshal([]byte(output), &single); err != nil {
			return nil, fmt.Errorf("failed to parse instance JSON: %w", err)
		}
		instances = []T{single}
	}

	return instances, nil
}
