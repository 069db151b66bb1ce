package runner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewCorrelationToken returns a fresh token linking external callbacks to a
// suspended run.
func NewCorrelationToken() string {
	return uuid.New().String()
}

// EncodeCallbackToken packs the identifiers a callback URL must carry into
// a single opaque string. DecodeCallbackToken is its strict inverse.
func EncodeCallbackToken(graphID, runID, nodeID string) string {
	return strings.Join([]string{graphID, runID, nodeID}, ":")
}

// DecodeCallbackToken splits a callback token back into its identifiers.
// The node ID may be empty; graph and run IDs may not.
func DecodeCallbackToken(token string) (graphID, runID, nodeID string, err error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed callback token %q", token)
	}

	if parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("callback token %q missing graph or run id", token)
	}

	return parts[0], parts[1], parts[2], nil
}
