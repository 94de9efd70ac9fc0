package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cache := filepath.Join(t.TempDir(), "ai_context.json")
	return NewSession("openclaw", "agent:main:main", cache, testLogger())
}

func fakeRunner(out string, err error) runner {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(out), err
	}
}

const structuredOut = `[
  {"key":"agent:side:review","model":"google/gemini-small","tokens":{"used":1000,"total":32000}},
  {"key":"agent:main:main","model":"google/gemini-large","tokens":{"used":486000,"total":1049000}}
]`

func TestSessionStructured(t *testing.T) {
	s := newTestSession(t)
	s.run = fakeRunner(structuredOut, nil)

	sc := s.Read(context.Background())
	if sc.Used != 486000 || sc.Total != 1049000 {
		t.Errorf("tokens = %d/%d", sc.Used, sc.Total)
	}
	if sc.Percent != 46.3 {
		t.Errorf("percent = %v, want 46.3", sc.Percent)
	}
	if sc.Model != "gemini-large" {
		t.Errorf("model = %q", sc.Model)
	}
}

func TestSessionStructuredFirstWhenNoMarker(t *testing.T) {
	s := newTestSession(t)
	s.marker = "agent:absent"
	s.run = fakeRunner(structuredOut, nil)

	sc := s.Read(context.Background())
	if sc.Model != "gemini-small" {
		t.Errorf("model = %q, want first session's model", sc.Model)
	}
}

func TestSessionTableFallback(t *testing.T) {
	s := newTestSession(t)
	calls := 0
	s.run = func(_ context.Context, _ string, args ...string) ([]byte, error) {
		calls++
		if calls == 1 {
			// --json unsupported by this CLI build.
			return []byte("unknown flag: --json"), errors.New("exit 1")
		}
		return []byte(
			"KIND    KEY              AGE     MODEL                 CONTEXT\n" +
				"direct  agent:main:main  1m ago  google/gemini-large   486k/1049k (46%)\n"), nil
	}

	sc := s.Read(context.Background())
	if sc.Used != 486000 || sc.Total != 1049000 {
		t.Errorf("tokens = %d/%d", sc.Used, sc.Total)
	}
	if sc.Percent != 46 {
		t.Errorf("percent = %v", sc.Percent)
	}
	if sc.Model != "gemini-large" {
		t.Errorf("model = %q", sc.Model)
	}
}

func TestSessionCacheFallback(t *testing.T) {
	s := newTestSession(t)
	if err := os.WriteFile(s.cacheFile,
		[]byte(`{"used_tokens":232000,"total_tokens":1000000,"percent":23.2,"model":"gemini-large"}`),
		0o644); err != nil {
		t.Fatal(err)
	}
	s.run = fakeRunner("", errors.New("exec: openclaw: not found"))

	sc := s.Read(context.Background())
	if sc.Used != 232000 || sc.Percent != 23.2 {
		t.Errorf("cache fallback = %+v", sc)
	}
}

func TestSessionZeroValue(t *testing.T) {
	s := newTestSession(t)
	s.run = fakeRunner("", errors.New("exec: openclaw: not found"))

	sc := s.Read(context.Background())
	want := models.SessionContext{Used: 0, Total: DefaultContextTotal, Percent: 0, Model: "unknown"}
	if sc != want {
		t.Errorf("zero value = %+v, want %+v", sc, want)
	}
}

func TestSessionToleratesGarbageOutput(t *testing.T) {
	s := newTestSession(t)
	s.run = fakeRunner("this is not json and has no usage columns", nil)

	sc := s.Read(context.Background())
	if sc.Total != DefaultContextTotal || sc.Model != "unknown" {
		t.Errorf("garbage output = %+v", sc)
	}
}

func TestSessionWritesCache(t *testing.T) {
	s := newTestSession(t)
	s.run = fakeRunner(structuredOut, nil)
	_ = s.Read(context.Background())

	// CLI gone: the cached result survives.
	s.run = fakeRunner("", errors.New("gone"))
	sc := s.Read(context.Background())
	if sc.Used != 486000 {
		t.Errorf("cached read = %+v", sc)
	}
}

func TestParseHumanCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"486k", 486000},
		{"1.05m", 1050000},
		{"900", 900},
		{"1049K", 1049000},
	}
	for _, c := range cases {
		got, err := parseHumanCount(c.in)
		if err != nil {
			t.Errorf("parseHumanCount(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseHumanCount(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	if _, err := parseHumanCount("lots"); err == nil {
		t.Error("parseHumanCount accepted garbage")
	}
}
