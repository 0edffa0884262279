package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mirrorbox/mirrorbox/internal/mirror"
	"github.com/mirrorbox/mirrorbox/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".mirrorbox", "config.json")
	DefaultAppLogPath  = filepath.Join(home, ".mirrorbox", "logs", "mirrorbox.log")
	DefaultIntervalSec = 60
)

var (
	ErrSourceMissing     = errors.New("source directory does not exist")
	ErrSameDir           = errors.New("source and destination must be different directories")
	ErrNestedDir         = errors.New("source and destination must not be nested in each other")
	ErrInvalidInterval   = errors.New("interval must be a positive number of seconds")
	ErrDestUnspecified   = errors.New("destination directory is required")
	ErrSourceUnspecified = errors.New("source directory is required")
	ErrLogFileInDest     = errors.New("log file inside the destination would be swept by the mirror")
)

// Config is the operator-supplied configuration for one mirror pair.
type Config struct {
	SourceDir       string `json:"source_dir"`
	DestDir         string `json:"dest_dir"`
	IntervalSeconds int    `json:"interval_seconds"`
	LogFile         string `json:"log_file,omitempty"` // operations log; defaults to <dest>/.mirrorbox/sync.log
	Watch           bool   `json:"watch"`
	Path            string `json:"-"`
}

// Interval returns the poll interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Validate resolves all paths and checks that the pair is syncable. The
// destination may not exist yet; the daemon creates it on startup.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return ErrSourceUnspecified
	}
	if c.DestDir == "" {
		return ErrDestUnspecified
	}
	if c.IntervalSeconds <= 0 {
		return ErrInvalidInterval
	}

	src, err := utils.ResolvePath(c.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	dst, err := utils.ResolvePath(c.DestDir)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	c.SourceDir = src
	c.DestDir = dst

	if !utils.DirExists(c.SourceDir) {
		return fmt.Errorf("%w: %s", ErrSourceMissing, c.SourceDir)
	}
	if c.SourceDir == c.DestDir {
		return ErrSameDir
	}
	if isNested(c.SourceDir, c.DestDir) || isNested(c.DestDir, c.SourceDir) {
		return ErrNestedDir
	}

	if c.LogFile != "" {
		logFile, err := utils.ResolvePath(c.LogFile)
		if err != nil {
			return fmt.Errorf("resolve log file: %w", err)
		}
		// the metadata dir is the only spot inside the destination that the
		// mirror never reconciles
		if isNested(c.DestDir, logFile) && !isNested(filepath.Join(c.DestDir, mirror.MetadataDirName), logFile) {
			return fmt.Errorf("%w: %s", ErrLogFileInDest, logFile)
		}
		c.LogFile = logFile
	}

	return nil
}

// Save writes the config as JSON to path.
func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	c.Path = path
	return os.WriteFile(path, data, 0o644)
}

// Load reads a JSON config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	if cfg.IntervalSeconds == 0 {
		cfg.IntervalSeconds = DefaultIntervalSec
	}

	return &cfg, nil
}

// isNested reports whether child is inside parent.
func isNested(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}
