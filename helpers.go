package netatmo

import (
	"encoding/json"
	"fmt"
)

// unmarshalResponse unmarshals JSON data with consistent error formatting.
// This helper reduces boilerplate across all API response parsing.
func unmarshalResponse[T any](data []byte, resourceName string) (*T, error) {
	var resp T
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w (body: %s)", resourceName, err, truncatePreview(data))
	}
	return &resp, nil
}

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
