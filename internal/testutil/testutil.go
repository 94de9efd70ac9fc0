// Package testutil provides shared test helpers.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteCredential writes a single-record credential file and returns its
// path.
func WriteCredential(t *testing.T, token string, expiresAt time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	data, err := json.Marshal(map[string]any{
		"token":      token,
		"expires_at": float64(expiresAt.Unix()),
		"created_at": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
