package backup

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustWrite(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func archiveNames(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		out[f.Name] = content
	}
	return out
}

func TestWriteToExcludesNoiseAndHidden(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "HEARTBEAT.md"), []byte("tasks"))
	mustWrite(t, filepath.Join(root, "src", "main.go"), []byte("package main"))
	mustWrite(t, filepath.Join(root, ".git", "HEAD"), []byte("ref"))
	mustWrite(t, filepath.Join(root, "node_modules", "x", "i.js"), []byte("x"))
	mustWrite(t, filepath.Join(root, ".secret"), []byte("x"))
	mustWrite(t, filepath.Join(root, ".heartbeat_last_run"), nil)

	var buf bytes.Buffer
	a := NewArchiver(root, ".heartbeat_last_run", nil, testLogger())
	if err := a.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	entries := archiveNames(t, buf.Bytes())
	if string(entries["HEARTBEAT.md"]) != "tasks" {
		t.Errorf("HEARTBEAT.md = %q", entries["HEARTBEAT.md"])
	}
	if _, ok := entries["src/main.go"]; !ok {
		t.Error("src/main.go missing from archive")
	}
	if _, ok := entries[".heartbeat_last_run"]; !ok {
		t.Error("allow-listed marker missing from archive")
	}
	for name := range entries {
		if name == ".secret" {
			t.Error("hidden file archived")
		}
		if strings.HasPrefix(name, ".git/") || strings.HasPrefix(name, "node_modules/") {
			t.Errorf("excluded directory leaked into archive: %s", name)
		}
	}
}

func TestWriteToSkipsUnopenableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "good.txt"), []byte("kept"))
	locked := filepath.Join(root, "locked.txt")
	mustWrite(t, locked, []byte("unreadable"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	var buf bytes.Buffer
	a := NewArchiver(root, "", nil, testLogger())
	if err := a.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	entries := archiveNames(t, buf.Bytes())
	if string(entries["good.txt"]) != "kept" {
		t.Errorf("good.txt = %q", entries["good.txt"])
	}
	if _, ok := entries["locked.txt"]; ok {
		t.Error("unopenable file produced an archive entry")
	}
}

func TestWriteToIncludesSystemFiles(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.txt"), []byte("a"))

	sysDir := t.TempDir()
	sysFile := filepath.Join(sysDir, "openclaw.json")
	mustWrite(t, sysFile, []byte(`{"agent":true}`))
	missing := filepath.Join(sysDir, "absent.conf")

	var buf bytes.Buffer
	a := NewArchiver(root, "", []string{sysFile, missing}, testLogger())
	if err := a.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	entries := archiveNames(t, buf.Bytes())
	if string(entries["system/openclaw.json"]) != `{"agent":true}` {
		t.Errorf("system file content = %q", entries["system/openclaw.json"])
	}
	if _, ok := entries["system/absent.conf"]; ok {
		t.Error("missing system file produced an archive entry")
	}
}
