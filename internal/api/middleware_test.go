package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/apperr"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/auth"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/testutil"
)

// These tests wire the middleware to the real token gate instead of a
// fake, covering the credential-file lifecycle end to end.

func gateRouter(t *testing.T, gate *auth.Gate) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Auth(gate)(mux)
}

func TestAuthWithRealGate(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	path := testutil.WriteCredential(t, "482913", expires)
	router := gateRouter(t, auth.NewGate("", path))

	req := httptest.NewRequest(http.MethodGet, "/ping?token=482913", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid credential: %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping?token=000000", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong credential: %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), apperr.ErrUnauthorized.Error()) {
		t.Errorf("401 body = %q, want the unauthorized error string", w.Body.String())
	}
}

func TestAuthWithExpiredCredential(t *testing.T) {
	path := testutil.WriteCredential(t, "482913", time.Now().Add(-time.Second))
	router := gateRouter(t, auth.NewGate("", path))

	req := httptest.NewRequest(http.MethodGet, "/ping?token=482913", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expired credential: %d, want 401", w.Code)
	}
}

func TestAuthMissingCredentialFileFailsClosed(t *testing.T) {
	router := gateRouter(t, auth.NewGate("", "/nonexistent/tokens.json"))

	req := httptest.NewRequest(http.MethodGet, "/ping?token=482913", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing credential file: %d, want 401", w.Code)
	}
}
