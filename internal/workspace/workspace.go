// Package workspace resolves the okrpulse working directory and its
// config.yml settings file.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Workspace defines workspace-relative paths for okrpulse operations.
type Workspace struct {
	Root       string
	ConfigPath string
	ExportsDir string
}

// Config mirrors config.yml at the workspace root.
type Config struct {
	// DBPath locates the sqlite database, relative paths resolving from
	// the workspace root.
	DBPath string `yaml:"db_path"`

	// CompletionModel names the text-completion model used for the
	// weekly executive report.
	CompletionModel string `yaml:"completion_model"`

	// APIKeyEnv names the environment variable holding the completion
	// API key. The key itself never lives in the file.
	APIKeyEnv string `yaml:"api_key_env"`
}

// DefaultConfig returns the settings a fresh workspace starts with.
func DefaultConfig() Config {
	return Config{
		DBPath:          "okrpulse.sqlite",
		CompletionModel: "claude-haiku-4-5-20251001",
		APIKeyEnv:       "ANTHROPIC_API_KEY",
	}
}

// Resolve expands and validates the workspace root, ensuring it exists.
func Resolve(root string) (*Workspace, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", abs)
	}
	return newWorkspace(abs), nil
}

// Init creates the workspace root, its directories, and a default
// config.yml when none exists.
func Init(root string) (*Workspace, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	w := newWorkspace(abs)
	if err := w.EnsureDirs(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(w.ConfigPath); os.IsNotExist(err) {
		if err := w.WriteConfig(DefaultConfig()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("check config: %w", err)
	}
	return w, nil
}

// EnsureDirs creates the standard workspace directories.
func (w *Workspace) EnsureDirs() error {
	if w == nil {
		return fmt.Errorf("workspace is nil")
	}
	if err := os.MkdirAll(w.ExportsDir, 0o755); err != nil {
		return fmt.Errorf("ensure %s: %w", w.ExportsDir, err)
	}
	return nil
}

// LoadConfig reads config.yml, falling back to defaults for any unset
// field so older files keep working.
func (w *Workspace) LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(w.ConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = DefaultConfig().DBPath
	}
	if strings.TrimSpace(cfg.CompletionModel) == "" {
		cfg.CompletionModel = DefaultConfig().CompletionModel
	}
	if strings.TrimSpace(cfg.APIKeyEnv) == "" {
		cfg.APIKeyEnv = DefaultConfig().APIKeyEnv
	}
	return cfg, nil
}

// WriteConfig serializes config.yml at the workspace root.
func (w *Workspace) WriteConfig(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(w.ConfigPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DBPath resolves the configured database location against the root.
func (w *Workspace) DBPath(cfg Config) (string, error) {
	return w.ResolvePath(cfg.DBPath)
}

// ResolvePath returns an absolute path, resolving relative paths from the
// workspace root.
func (w *Workspace) ResolvePath(path string) (string, error) {
	if w == nil {
		return "", fmt.Errorf("workspace is nil")
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Abs(filepath.Join(w.Root, expanded))
}

func newWorkspace(root string) *Workspace {
	return &Workspace{
		Root:       root,
		ConfigPath: filepath.Join(root, "config.yml"),
		ExportsDir: filepath.Join(root, "exports"),
	}
}

func resolveRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("workspace root is required")
	}
	expanded, err := expandHome(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return abs, nil
}

func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return "", fmt.Errorf("unsupported home expansion: %s", path)
}
