package probe

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// DefaultJobsTTL is how long a jobs read is served from cache. The jobs
// file belongs to the external scheduler and changes rarely; the fsnotify
// watcher invalidates early when it does.
const DefaultJobsTTL = 15 * time.Second

const jobIDPrefix = 8

// Jobs reads the external scheduler's job definitions behind a small TTL
// cache with an injectable clock.
type Jobs struct {
	file string
	ttl  time.Duration
	now  func() time.Time
	log  *slog.Logger

	mu        sync.Mutex
	cached    []models.Job
	fetchedAt time.Time
}

// NewJobs creates the scheduled-job reader. ttl <= 0 falls back to
// DefaultJobsTTL.
func NewJobs(file string, ttl time.Duration, log *slog.Logger) *Jobs {
	if ttl <= 0 {
		ttl = DefaultJobsTTL
	}
	return &Jobs{file: file, ttl: ttl, now: time.Now, log: log}
}

// Invalidate drops the cached listing. Called by the jobs-file watcher.
func (j *Jobs) Invalidate() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cached = nil
	j.fetchedAt = time.Time{}
}

// List returns the scheduled jobs, or an empty slice on any read/parse
// failure. Never nil, never an error.
func (j *Jobs) List(_ context.Context) []models.Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cached != nil && j.now().Sub(j.fetchedAt) < j.ttl {
		return j.cached
	}
	j.cached = j.load()
	j.fetchedAt = j.now()
	return j.cached
}

type jobsFile struct {
	Jobs []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Schedule struct {
			Expr string `json:"expr"`
		} `json:"schedule"`
		Payload struct {
			Message string `json:"message"`
		} `json:"payload"`
	} `json:"jobs"`
}

func (j *Jobs) load() []models.Job {
	jobs := []models.Job{}

	data, err := os.ReadFile(j.file)
	if err != nil {
		j.log.Debug("jobs file unreadable", slog.String("error", err.Error()))
		return jobs
	}
	var parsed jobsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		j.log.Warn("jobs file malformed", slog.String("error", err.Error()))
		return jobs
	}

	for _, raw := range parsed.Jobs {
		id := raw.ID
		if len(id) > jobIDPrefix {
			id = id[:jobIDPrefix]
		}
		name := raw.Name
		if name == "" {
			name = "Unnamed"
		}
		schedule := raw.Schedule.Expr
		if schedule == "" {
			schedule = "at once"
		}
		payload := raw.Payload.Message
		if payload == "" {
			payload = "Agent Turn"
		}
		jobs = append(jobs, models.Job{ID: id, Name: name, Schedule: schedule, Payload: payload})
	}
	return jobs
}
