package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultLogFile is the event log file name inside the base directory.
const DefaultLogFile = "master.log"

// DefaultExportDir is the export directory name inside the base directory.
const DefaultExportDir = "exports"

// Config holds application configuration.
type Config struct {
	// LogPath is the location of the append-only event log.
	// Empty means <baseDir>/master.log.
	LogPath string `json:"log_path,omitempty" env:"TALLY_LOG_PATH"`

	// Bind and Port control the HTTP listener used by `tally serve`.
	Bind string `json:"bind,omitempty" env:"TALLY_BIND"`
	Port int    `json:"port,omitempty" env:"TALLY_PORT"`

	// LogLevel is the slog level for diagnostics: debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" env:"TALLY_LOG_LEVEL"`

	// MaxLineBytes caps a single appended line so each append stays one small
	// O_APPEND write. 0 keeps the default; negative disables the cap.
	MaxLineBytes int `json:"max_line_bytes,omitempty" env:"TALLY_MAX_LINE_BYTES"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" env:"TALLY_DISABLED_TOOLS" envSeparator:","`

	// ExportDir is the default destination for `tally export`.
	// Empty means <baseDir>/exports.
	ExportDir string `json:"export_dir,omitempty" env:"TALLY_EXPORT_DIR"`

	// AllowedPaths lists extra absolute directories an export may be written to.
	AllowedPaths []string `json:"allowed_paths,omitempty" env:"TALLY_ALLOWED_PATHS" envSeparator:","`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bind:         "127.0.0.1",
		Port:         8080,
		LogLevel:     "info",
		MaxLineBytes: 4096,
	}
}

// Load loads configuration from baseDir/config.json and the environment.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tally.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return finish(cfg, baseDir)
}

// LoadWithRepo loads configuration from both global (~/.tally) and repo (.tally) directories.
// Repo config is found by walking upward from startDir to find the nearest .tally/config.json.
// Precedence: defaults < global < repo < environment.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return finish(Merge(Merge(DefaultConfig(), global), repo), globalDir)
}

// FindRepoConfig walks upward from startDir to find the nearest .tally/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".tally", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// finish applies environment overrides and fills the derived log path.
func finish(cfg *Config, baseDir string) (*Config, error) {
	overlay := &Config{}
	if err := env.Parse(overlay); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg = Merge(cfg, overlay)

	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(baseDir, DefaultLogFile)
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = filepath.Join(baseDir, DefaultExportDir)
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.LogPath = firstString(overlay.LogPath, base.LogPath)
	result.Bind = firstString(overlay.Bind, base.Bind)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)

	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.MaxLineBytes = overlay.MaxLineBytes
	if result.MaxLineBytes == 0 {
		result.MaxLineBytes = base.MaxLineBytes
	}

	result.ExportDir = firstString(overlay.ExportDir, base.ExportDir)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	return result
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
