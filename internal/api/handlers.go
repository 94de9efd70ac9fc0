package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/apperr"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// Aggregator produces one status snapshot per call.
type Aggregator interface {
	Aggregate(ctx context.Context) models.Snapshot
}

// HeartbeatStore reads and overwrites the heartbeat blob.
type HeartbeatStore interface {
	Read() (raw string, lastRun int64)
	Update(content string) error
}

// FileReader serves the workspace tree and paged file reads.
type FileReader interface {
	Walk(ctx context.Context) *models.Node
	ReadChunk(path string, page int) (models.Chunk, error)
}

// Archiver streams the workspace backup.
type Archiver interface {
	WriteTo(w io.Writer) error
}

// Translator delegates to the external translation provider.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// ProjectLister summarizes the project directories.
type ProjectLister interface {
	List(ctx context.Context) []models.Project
}

// Handler holds API route handlers.
type Handler struct {
	agg       Aggregator
	heartbeat HeartbeatStore
	files     FileReader
	archiver  Archiver
	translate Translator
	projects  ProjectLister
}

// NewHandler creates a new Handler.
func NewHandler(agg Aggregator, hb HeartbeatStore, files FileReader, ar Archiver, tr Translator, pr ProjectLister) *Handler {
	return &Handler{agg: agg, heartbeat: hb, files: files, archiver: ar, translate: tr, projects: pr}
}

// Status handles GET /api/status: the full aggregated snapshot. The
// aggregator is total, so this can only be 200 (after auth).
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agg.Aggregate(r.Context()))
}

// Auth handles POST /api/auth. The middleware already verified the token;
// reaching here means success.
func (h *Handler) Auth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HeartbeatUpdate handles POST /api/heartbeat/update: wholesale overwrite
// of the heartbeat content.
func (h *Handler) HeartbeatUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	if err := h.heartbeat.Update(*req.Content); err != nil {
		slog.Error("heartbeat update failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// FilesTree handles GET /api/files/tree.
func (h *Handler) FilesTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.files.Walk(r.Context()))
}

// FilesRead handles GET /api/files/read?path=&page=. Not-found and
// access-denied are in-band error documents, not transport failures.
func (h *Handler) FilesRead(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("page must be an integer"))
			return
		}
		page = parsed
	}

	chunk, err := h.files.ReadChunk(path, page)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAccessDenied):
			writeJSON(w, http.StatusOK, errorBody("access denied"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusOK, errorBody("not found"))
		default:
			writeJSON(w, http.StatusOK, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

// Backup handles GET /api/backup: streams a zip of the workspace. Once
// streaming starts, failures can only be logged.
func (h *Handler) Backup(w http.ResponseWriter, _ *http.Request) {
	filename := fmt.Sprintf("workspace-backup-%s.zip", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := h.archiver.WriteTo(w); err != nil {
		slog.Error("backup stream failed", slog.String("error", err.Error()))
	}
}

// Translate handles POST /api/translate. Provider failures surface as an
// in-band error string, never a transport failure.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text *string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Text == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}

	translated, err := h.translate.Translate(r.Context(), *req.Text)
	if err != nil {
		slog.Warn("translation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"translated": translated})
}

// Projects handles GET /api/projects.
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": h.projects.List(r.Context()),
	})
}
