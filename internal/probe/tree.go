package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/apperr"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// ChunkSize is the fixed window for paged file reads.
const ChunkSize = 1 << 20 // 1 MiB

// DefaultMaxDepth bounds the tree traversal. Deep nesting beyond this is
// clipped rather than risking a runaway walk.
const DefaultMaxDepth = 12

// noiseDirs are dependency/cache directories never worth showing.
var noiseDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"dist":         true,
}

// Tree walks the workspace and serves paged file reads. Hidden entries are
// skipped except allowDot (the heartbeat marker); symlinked directories
// are reported as leaves and never descended into, which also rules out
// traversal cycles.
type Tree struct {
	root       string // absolute workspace root
	systemRoot string // absolute second root for allow-listed absolute paths
	allowDot   string
	maxDepth   int
	log        *slog.Logger
}

// NewTree creates the workspace walker. root must exist; systemRoot may be
// empty, in which case absolute paths are always denied.
func NewTree(root, systemRoot, allowDot string, maxDepth int, log *slog.Logger) (*Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("tree: resolve root: %w", err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("tree: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("tree: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tree: root is not a directory: %s", abs)
	}
	sysAbs := ""
	if systemRoot != "" {
		if sysAbs, err = filepath.Abs(systemRoot); err != nil {
			return nil, fmt.Errorf("tree: resolve system root: %w", err)
		}
		// The system root need not exist yet; canonicalize when it does.
		if real, err := filepath.EvalSymlinks(sysAbs); err == nil {
			sysAbs = real
		}
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree{root: abs, systemRoot: sysAbs, allowDot: allowDot, maxDepth: maxDepth, log: log}, nil
}

type walkFrame struct {
	abs   string
	node  *models.Node
	depth int
}

// Walk returns the workspace tree rooted at the configured directory.
// Unreadable directories contribute empty children; Walk never fails.
func (t *Tree) Walk(ctx context.Context) *models.Node {
	root := &models.Node{
		Name:     filepath.Base(t.root),
		IsDir:    true,
		Path:     ".",
		Children: []*models.Node{},
	}
	if info, err := os.Stat(t.root); err == nil {
		root.ModTime = info.ModTime().Unix()
	}

	// Explicit stack instead of recursion: depth is bounded by config, not
	// by the goroutine stack.
	stack := []walkFrame{{abs: t.root, node: root, depth: 0}}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			break
		}
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(frame.abs)
		if err != nil {
			t.log.Debug("tree: unreadable directory",
				slog.String("path", frame.abs),
				slog.String("error", err.Error()))
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") && name != t.allowDot {
				continue
			}
			if entry.IsDir() && noiseDirs[name] {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			childAbs := filepath.Join(frame.abs, name)
			rel, err := filepath.Rel(t.root, childAbs)
			if err != nil {
				continue
			}
			child := &models.Node{
				Name:    name,
				Path:    filepath.ToSlash(rel),
				Size:    info.Size(),
				ModTime: info.ModTime().Unix(),
			}
			// entry.IsDir is false for symlinks, so linked directories
			// stay leaves.
			if entry.IsDir() {
				child.IsDir = true
				child.Children = []*models.Node{}
				if frame.depth+1 < t.maxDepth {
					stack = append(stack, walkFrame{abs: childAbs, node: child, depth: frame.depth + 1})
				}
			}
			frame.node.Children = append(frame.node.Children, child)
		}
	}
	return root
}

// Resolve canonicalizes path and enforces the root boundary: relative
// paths must stay under the workspace root, absolute paths are allowed
// only under the system root. Symlinks are resolved before the boundary
// check, so a link pointing outside the permitted roots is an escape no
// matter where it sits. Everything else is apperr.ErrAccessDenied.
func (t *Tree) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("tree: %w: empty path", apperr.ErrAccessDenied)
	}
	cleaned := filepath.Clean(path)

	root := t.root
	candidate := filepath.Join(t.root, cleaned)
	if filepath.IsAbs(cleaned) {
		if t.systemRoot == "" {
			return "", fmt.Errorf("tree: %w: %s", apperr.ErrAccessDenied, path)
		}
		root = t.systemRoot
		candidate = cleaned
	}

	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("tree: %w: %s", apperr.ErrAccessDenied, path)
	}
	real, ok := canonicalWithin(abs, root)
	if !ok {
		return "", fmt.Errorf("tree: %w: %s", apperr.ErrAccessDenied, path)
	}
	return real, nil
}

// canonicalWithin resolves symlinks in abs and reports whether the result
// stays under root. A path whose target does not exist yet is checked
// lexically so callers can still report not-found.
func canonicalWithin(abs, root string) (string, bool) {
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, underRoot(abs, root)
		}
		return "", false
	}
	return real, underRoot(real, root)
}

func underRoot(abs, root string) bool {
	return abs == root || strings.HasPrefix(abs, root+string(os.PathSeparator))
}

// ReadChunk returns page (1-indexed) of the file at path in fixed
// ChunkSize windows. total_pages is ceil(size/ChunkSize), and 1 for an
// empty file.
func (t *Tree) ReadChunk(path string, page int) (models.Chunk, error) {
	abs, err := t.Resolve(path)
	if err != nil {
		return models.Chunk{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.Chunk{}, fmt.Errorf("tree: %w: %s", apperr.ErrNotFound, path)
	}
	if info.IsDir() {
		return models.Chunk{}, fmt.Errorf("tree: %w: %s is a directory", apperr.ErrAccessDenied, path)
	}

	size := info.Size()
	totalPages := int((size + ChunkSize - 1) / ChunkSize)
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 || page > totalPages {
		return models.Chunk{}, fmt.Errorf("tree: page %d out of range 1..%d", page, totalPages)
	}

	f, err := os.Open(abs)
	if err != nil {
		return models.Chunk{}, fmt.Errorf("tree: %w: %s", apperr.ErrNotFound, path)
	}
	defer f.Close()

	if _, err := f.Seek(int64(page-1)*ChunkSize, io.SeekStart); err != nil {
		return models.Chunk{}, fmt.Errorf("tree: seek: %w", err)
	}
	content, err := io.ReadAll(io.LimitReader(f, ChunkSize))
	if err != nil {
		return models.Chunk{}, fmt.Errorf("tree: read: %w", err)
	}
	return models.Chunk{
		Content:    string(content),
		Size:       size,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}
