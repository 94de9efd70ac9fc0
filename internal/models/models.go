// Package models defines the data types shared between probes, the
// aggregator, and the HTTP API.
package models

import "encoding/json"

// HostStats holds the host-level gauges collected by the metrics probe.
type HostStats struct {
	CPUPercent  float64 `json:"cpu_percent"`
	RAMPercent  float64 `json:"ram_percent"`
	DiskPercent float64 `json:"disk_percent"`
	Uptime      string  `json:"uptime"`
}

// Agent is one discovered process of interest.
type Agent struct {
	PID  int32  `json:"pid"`
	Name string `json:"display_name"`
}

// Commit is a single log entry: subject line plus a human relative age.
type Commit struct {
	Message string `json:"message"`
	Age     string `json:"relative_age"`
}

// GitInfo is the version-control summary for the dashboard repository.
type GitInfo struct {
	Branch  string   `json:"branch"`
	Commits []Commit `json:"commits"`
}

// SessionContext describes an external AI session's context-window usage.
type SessionContext struct {
	Used    int     `json:"used_tokens"`
	Total   int     `json:"total_tokens"`
	Percent float64 `json:"percent"`
	Model   string  `json:"model"`
}

// Job is one scheduled job as shown on the dashboard.
type Job struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule_expr"`
	Payload  string `json:"payload_summary"`
}

// Node is one entry in the workspace file tree. Children is non-nil for
// directories (possibly empty) and nil for files.
type Node struct {
	Name     string  `json:"name"`
	IsDir    bool    `json:"is_dir"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	ModTime  int64   `json:"mtime"`
	Children []*Node `json:"children,omitempty"`
}

// MarshalJSON emits the children field iff the node is a directory, so an
// empty directory serializes as "children": [] rather than dropping the key.
func (n *Node) MarshalJSON() ([]byte, error) {
	type fileNode struct {
		Name    string `json:"name"`
		IsDir   bool   `json:"is_dir"`
		Path    string `json:"path"`
		Size    int64  `json:"size"`
		ModTime int64  `json:"mtime"`
	}
	f := fileNode{Name: n.Name, IsDir: n.IsDir, Path: n.Path, Size: n.Size, ModTime: n.ModTime}
	if !n.IsDir {
		return json.Marshal(f)
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(struct {
		fileNode
		Children []*Node `json:"children"`
	}{f, children})
}

// Chunk is one fixed-size window of a file's content.
type Chunk struct {
	Content    string `json:"content"`
	Size       int64  `json:"size"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

// ProjectFile is a one-level listing entry inside a project directory.
type ProjectFile struct {
	Name    string `json:"name"`
	IsDir   bool   `json:"is_dir"`
	Size    int64  `json:"size"`
	ModTime string `json:"mtime"`
}

// Project summarizes one directory under the projects root.
type Project struct {
	Name   string        `json:"name"`
	HasGit bool          `json:"has_git"`
	Origin string        `json:"origin,omitempty"`
	Files  []ProjectFile `json:"files"`
}

// Snapshot is the merged output of one aggregation pass. Every key is
// always present; failed probes contribute their zero-value contract.
type Snapshot struct {
	CPUPercent       float64        `json:"cpu_percent"`
	RAMPercent       float64        `json:"ram_percent"`
	DiskPercent      float64        `json:"disk_percent"`
	Uptime           string         `json:"uptime"`
	Agents           []Agent        `json:"agents"`
	HeartbeatLastRun int64          `json:"heartbeat_last_run"`
	HeartbeatRaw     string         `json:"heartbeat_raw"`
	Git              GitInfo        `json:"git"`
	Files            *Node          `json:"files"`
	Session          SessionContext `json:"session_context"`
	Jobs             []Job          `json:"scheduled_jobs"`
}
