// Package auth implements the token gate: a static master key plus a
// single rotating short-lived credential persisted to a flat JSON file.
package auth

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/fsutil"
)

// Credential is the single rotating token record. The file holds exactly
// one record and is overwritten wholesale on regeneration.
type Credential struct {
	Token     string  `json:"token"`
	ExpiresAt float64 `json:"expires_at"`
	CreatedAt string  `json:"created_at"`
}

// Gate validates presented tokens. It is read-only: verification never
// mutates the credential file.
type Gate struct {
	masterKey string
	tokenFile string
	now       func() time.Time
}

// NewGate creates a gate. An empty masterKey disables the master-key
// short-circuit.
func NewGate(masterKey, tokenFile string) *Gate {
	return &Gate{masterKey: masterKey, tokenFile: tokenFile, now: time.Now}
}

// Verify reports whether candidate is currently authorized. Any I/O or
// parse error on the credential file fails closed: the caller sees a
// plain "not authorized", never an error.
func (g *Gate) Verify(candidate string) bool {
	if candidate == "" {
		return false
	}
	if g.masterKey != "" && candidate == g.masterKey {
		return true
	}

	data, err := os.ReadFile(g.tokenFile)
	if err != nil {
		return false
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return false
	}
	if cred.Token == "" || candidate != cred.Token {
		return false
	}
	return float64(g.now().Unix()) < cred.ExpiresAt
}

// Generate writes a fresh 6-digit credential to path, valid until the next
// local midnight, and returns the code. Used by the token subcommand.
func Generate(path string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("auth: random code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	cred := Credential{
		Token:     code,
		ExpiresAt: float64(midnight.Unix()),
		CreatedAt: now.Format(time.RFC3339),
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return "", fmt.Errorf("auth: marshal credential: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", fmt.Errorf("auth: write credential: %w", err)
	}
	return code, nil
}

// NewMasterKey returns a 32-byte random hex string suitable for MASTER_KEY.
func NewMasterKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: master key: %w", err)
	}
	return fmt.Sprintf("%x", b), nil
}
