package probe

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// originResolver returns the origin remote URL of a repository directory,
// or "" when there is none. Satisfied by (*Git).OriginURL.
type originResolver interface {
	OriginURL(ctx context.Context, dir string) string
}

// Projects lists the directories under the projects root with git metadata
// and a one-level file listing.
type Projects struct {
	root   string
	origin originResolver
	log    *slog.Logger
}

// NewProjects creates the projects lister.
func NewProjects(root string, origin originResolver, log *slog.Logger) *Projects {
	return &Projects{root: root, origin: origin, log: log}
}

// List returns all project summaries, or an empty slice on any failure.
func (p *Projects) List(ctx context.Context) []models.Project {
	projects := []models.Project{}

	entries, err := os.ReadDir(p.root)
	if err != nil {
		p.log.Debug("projects root unreadable", slog.String("error", err.Error()))
		return projects
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(p.root, entry.Name())
		proj := models.Project{
			Name:  entry.Name(),
			Files: listProjectFiles(dir),
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			proj.HasGit = true
			proj.Origin = p.origin.OriginURL(ctx, dir)
		}
		projects = append(projects, proj)
	}
	return projects
}

func listProjectFiles(dir string) []models.ProjectFile {
	files := []models.ProjectFile{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return files
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || noiseDirs[name] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.ProjectFile{
			Name:    name,
			IsDir:   entry.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Format(time.DateTime),
		})
	}
	return files
}
