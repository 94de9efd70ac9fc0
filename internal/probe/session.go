package probe

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/fsutil"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// DefaultContextTotal is the context-window capacity reported when no
// strategy can tell us the real one.
const DefaultContextTotal = 1_000_000

// tableLine matches the usage columns of the CLI's human-readable table:
// "<model> 486k/1049k (46%)" with optional k/m suffixes.
var tableLine = regexp.MustCompile(`(\S+)\s+([\d.]+[km]?)\s*/\s*([\d.]+[km]?)\s*\(([\d.]+)%\)`)

// Session reads an external AI session's context-window usage. Strategies
// are tried in order: structured CLI output, human-table scrape, cached
// last-known-good file, documented zero value. A success from the CLI
// rewrites the cache.
type Session struct {
	cli       string // CLI binary, e.g. "openclaw"
	marker    string // substring identifying the main session key
	cacheFile string
	run       runner
	log       *slog.Logger
}

// NewSession creates the session/context probe.
func NewSession(cli, marker, cacheFile string, log *slog.Logger) *Session {
	return &Session{cli: cli, marker: marker, cacheFile: cacheFile, run: execRunner, log: log}
}

// Read never fails: it degrades through the strategy chain down to
// {used: 0, total: DefaultContextTotal, percent: 0, model: "unknown"}.
func (s *Session) Read(ctx context.Context) models.SessionContext {
	if sc, ok := s.readStructured(ctx); ok {
		s.writeCache(sc)
		return sc
	}
	if sc, ok := s.readTable(ctx); ok {
		s.writeCache(sc)
		return sc
	}
	if sc, ok := s.readCache(); ok {
		return sc
	}
	return models.SessionContext{Total: DefaultContextTotal, Model: "unknown"}
}

type cliSession struct {
	Key    string `json:"key"`
	Model  string `json:"model"`
	Tokens struct {
		Used  int `json:"used"`
		Total int `json:"total"`
	} `json:"tokens"`
}

func (s *Session) readStructured(ctx context.Context) (models.SessionContext, bool) {
	out, err := s.run(ctx, s.cli, "sessions", "list", "--json")
	if err != nil {
		s.log.Debug("session cli (json) failed", slog.String("error", err.Error()))
		return models.SessionContext{}, false
	}
	var sessions []cliSession
	if err := json.Unmarshal(out, &sessions); err != nil || len(sessions) == 0 {
		s.log.Debug("session cli returned no usable json")
		return models.SessionContext{}, false
	}

	picked := sessions[0]
	for _, sess := range sessions {
		if strings.Contains(sess.Key, s.marker) {
			picked = sess
			break
		}
	}
	if picked.Tokens.Total <= 0 {
		return models.SessionContext{}, false
	}
	return models.SessionContext{
		Used:    picked.Tokens.Used,
		Total:   picked.Tokens.Total,
		Percent: round1(float64(picked.Tokens.Used) / float64(picked.Tokens.Total) * 100),
		Model:   shortModel(picked.Model),
	}, true
}

func (s *Session) readTable(ctx context.Context) (models.SessionContext, bool) {
	out, err := s.run(ctx, s.cli, "sessions", "list")
	if err != nil {
		s.log.Debug("session cli (table) failed", slog.String("error", err.Error()))
		return models.SessionContext{}, false
	}

	lines := strings.Split(string(out), "\n")
	var candidate string
	for _, line := range lines {
		if strings.Contains(line, s.marker) {
			candidate = line
			break
		}
	}
	if candidate == "" {
		for _, line := range lines {
			if strings.Contains(line, "direct") {
				candidate = line
				break
			}
		}
	}
	if candidate == "" {
		return models.SessionContext{}, false
	}

	m := tableLine.FindStringSubmatch(candidate)
	if m == nil {
		return models.SessionContext{}, false
	}
	used, uerr := parseHumanCount(m[2])
	total, terr := parseHumanCount(m[3])
	percent, perr := strconv.ParseFloat(m[4], 64)
	if uerr != nil || terr != nil || perr != nil || total <= 0 {
		return models.SessionContext{}, false
	}
	return models.SessionContext{
		Used:    used,
		Total:   total,
		Percent: round1(percent),
		Model:   shortModel(m[1]),
	}, true
}

func (s *Session) readCache() (models.SessionContext, bool) {
	data, err := os.ReadFile(s.cacheFile)
	if err != nil {
		return models.SessionContext{}, false
	}
	var sc models.SessionContext
	if err := json.Unmarshal(data, &sc); err != nil || sc.Total <= 0 {
		return models.SessionContext{}, false
	}
	return sc, true
}

// writeCache is best effort: a failed write only costs the next fallback.
func (s *Session) writeCache(sc models.SessionContext) {
	if s.cacheFile == "" {
		return
	}
	data, err := json.Marshal(sc)
	if err != nil {
		return
	}
	if err := fsutil.WriteFileAtomic(s.cacheFile, data, 0o644); err != nil {
		s.log.Debug("session cache write failed", slog.String("error", err.Error()))
	}
}

// parseHumanCount expands "486k" / "1.05m" style counts.
func parseHumanCount(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult = 1_000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult = 1_000_000
		s = strings.TrimSuffix(s, "m")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(v * mult), nil
}

// shortModel trims a provider path like "google/gemini-x" to its last
// element.
func shortModel(model string) string {
	if model == "" {
		return "unknown"
	}
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	return model
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
