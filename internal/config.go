package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Auth      AuthConfig        `yaml:"auth"`
	Probes    ProbesConfig      `yaml:"probes"`
	Session   SessionConfig     `yaml:"session"`
	Jobs      JobsConfig        `yaml:"jobs"`
	Backup    BackupConfig      `yaml:"backup"`
	Translate TranslateConfig   `yaml:"translate"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Probes.Validate(); err != nil {
		return err
	}
	return c.Session.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig describes the browsable workspace and its well-known
// files. HeartbeatFile and MarkerFile are relative to Root; SystemRoot is
// the only directory absolute file-read paths may target.
type WorkspaceConfig struct {
	Root          string `yaml:"root"`
	SystemRoot    string `yaml:"system_root"`
	HeartbeatFile string `yaml:"heartbeat_file"`
	MarkerFile    string `yaml:"marker_file"`
	ProjectsDir   string `yaml:"projects_dir"`
	MaxTreeDepth  int    `yaml:"max_tree_depth"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.HeartbeatFile, validation.Required),
		validation.Field(&c.MarkerFile, validation.Required),
	)
}

// HeartbeatPath returns the heartbeat content path under the workspace.
func (c *WorkspaceConfig) HeartbeatPath() string {
	return filepath.Join(c.Root, c.HeartbeatFile)
}

// MarkerPath returns the heartbeat marker path under the workspace.
func (c *WorkspaceConfig) MarkerPath() string {
	return filepath.Join(c.Root, c.MarkerFile)
}

// ProjectsPath returns the projects root under the workspace.
func (c *WorkspaceConfig) ProjectsPath() string {
	return filepath.Join(c.Root, c.ProjectsDir)
}

// AuthConfig holds authentication configuration.
//
// MasterKey is normally supplied via environment expansion
// ("${MASTER_KEY}"); empty disables the master-key short-circuit.
// TokenFile is the single-record rotating credential store, regenerated
// out-of-band by the token subcommand.
type AuthConfig struct {
	MasterKey string `yaml:"master_key"`
	TokenFile string `yaml:"token_file"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TokenFile, validation.Required),
	)
}

// RuleConfig is one process-classification rule: a command line matches
// when it contains every substring in match.
type RuleConfig struct {
	Match []string `yaml:"match"`
	Label string   `yaml:"label"`
}

// ProbesConfig tunes the aggregation pass. Empty Rules keeps the probe's
// built-in classification table.
type ProbesConfig struct {
	TimeoutSeconds int          `yaml:"timeout_seconds"`
	DiskPath       string       `yaml:"disk_path"`
	GitRoot        string       `yaml:"git_root"`
	Rules          []RuleConfig `yaml:"rules"`
	Watch          []string     `yaml:"watch"`
}

// Validate validates the probes configuration.
func (c *ProbesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TimeoutSeconds, validation.Min(1), validation.Max(60)),
	)
}

// Timeout returns the per-probe deadline.
func (c *ProbesConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionConfig points at the external AI session CLI.
type SessionConfig struct {
	CLI       string `yaml:"cli"`
	Marker    string `yaml:"marker"`
	CacheFile string `yaml:"cache_file"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CLI, validation.Required),
	)
}

// JobsConfig points at the external scheduler's job definitions.
type JobsConfig struct {
	File       string `yaml:"file"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the jobs cache lifetime.
func (c *JobsConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// BackupConfig lists extra absolute paths bundled into the backup
// archive under system/.
type BackupConfig struct {
	Include []string `yaml:"include"`
}

// TranslateConfig configures the translation pass-through.
type TranslateConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Target    string `yaml:"target"`
	ChunkSize int    `yaml:"chunk_size"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Workspace: WorkspaceConfig{
			Root:          "./workspace",
			HeartbeatFile: "HEARTBEAT.md",
			MarkerFile:    ".heartbeat_last_run",
			ProjectsDir:   "projects",
			MaxTreeDepth:  12,
		},
		Auth: AuthConfig{
			TokenFile: "./tokens.json",
		},
		Probes: ProbesConfig{
			TimeoutSeconds: 5,
			DiskPath:       "/",
			GitRoot:        ".",
		},
		Session: SessionConfig{
			CLI:       "openclaw",
			Marker:    "agent:main:main",
			CacheFile: "./ai_context.json",
		},
		Jobs: JobsConfig{
			File:       "./jobs.json",
			TTLSeconds: 15,
		},
		Translate: TranslateConfig{
			Target: "ru",
		},
	}
}
