// Package api implements the dashboard REST API using chi.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/apperr"
)

// maxAuthBodyBytes bounds the body peek in candidateToken.
const maxAuthBodyBytes = 10 << 20 // 10 MB

// TokenVerifier reports whether a presented token is currently valid.
type TokenVerifier interface {
	Verify(candidate string) bool
}

// Auth returns middleware enforcing the token gate. The polling client
// sends its token three ways depending on the call: "Authorization:
// Bearer <token>", a ?token= query parameter on GETs, or a "token" field
// in a JSON POST body. All three are accepted.
func Auth(gate TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Verify(candidateToken(r)) {
				writeJSON(w, http.StatusUnauthorized, errorBody(apperr.ErrUnauthorized.Error()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// candidateToken extracts the presented token. When it has to peek into a
// JSON body, the body is restored so the handler can decode it again.
func candidateToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	if r.Body == nil || r.Method == http.MethodGet {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthBodyBytes))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var peek struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &peek); err != nil {
		return ""
	}
	return peek.Token
}
