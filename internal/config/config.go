package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/waypost/pkg/api"
)

type (
	// Config holds configuration settings for the tracker, the monitor
	// API, and the archiver
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Session Logs
		LogsRoot      string
		Session       api.SessionID
		LockTimeoutMS int64

		// Monitoring
		WatchDebounceMS int64

		// Archiving
		ArchiveBucket string
		ArchivePrefix string

		ShutdownTimeout time.Duration
	}
)

const (
	DefaultAPIHost = "localhost"
	DefaultAPIPort = 8710
	MaxTCPPort     = 65535

	// DefaultLogsRoot is resolved relative to the working directory, which
	// keeps session logs alongside the project being worked on
	DefaultLogsRoot = ".waypost/sessions"

	DefaultArchivePrefix = "waypost"

	DefaultLockTimeoutMS   = 2000
	DefaultWatchDebounceMS = 250
	DefaultShutdownTimeout = 10 * time.Second

	MaxLockTimeoutMS   = 60_000
	MaxWatchDebounceMS = 60_000
)

var (
	ErrInvalidAPIPort = errors.New("invalid API port")
	ErrLogsRootEmpty  = errors.New("logs root cannot be empty")
)

// NewDefaultConfig creates a configuration with sensible defaults for
// every setting
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        "info",
		LogsRoot:        DefaultLogsRoot,
		Session:         "default",
		LockTimeoutMS:   DefaultLockTimeoutMS,
		WatchDebounceMS: DefaultWatchDebounceMS,
		ArchivePrefix:   DefaultArchivePrefix,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if root := os.Getenv("WAYPOST_LOGS_ROOT"); root != "" {
		c.LogsRoot = root
	}
	if session := os.Getenv("WAYPOST_SESSION"); session != "" {
		c.Session = api.SessionID(session)
	}
	if apiHost := os.Getenv("WAYPOST_API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("WAYPOST_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if bucket := os.Getenv("WAYPOST_ARCHIVE_BUCKET"); bucket != "" {
		c.ArchiveBucket = bucket
	}
	if prefix := os.Getenv("WAYPOST_ARCHIVE_PREFIX"); prefix != "" {
		c.ArchivePrefix = prefix
	}

	if err := loadEnvInt(
		"WAYPOST_API_PORT", &c.APIPort, 0, MaxTCPPort,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"WAYPOST_LOCK_TIMEOUT_MS", &c.LockTimeoutMS, 0, MaxLockTimeoutMS,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"WAYPOST_WATCH_DEBOUNCE_MS", &c.WatchDebounceMS, 0,
		MaxWatchDebounceMS,
	); err != nil {
		return err
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.LogsRoot == "" {
		return ErrLogsRootEmpty
	}
	return nil
}

// APIAddr returns the listen address for the monitor API
func (c *Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

// LockTimeout returns the append lock timeout as a duration
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

// WatchDebounce returns the log watch debounce as a duration
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
