package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	app "github.com/kode4food/waypost"
	"github.com/kode4food/waypost/internal/config"
	"github.com/kode4food/waypost/internal/eventlog"
	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/catalog"
	"github.com/kode4food/waypost/pkg/log"
	"github.com/kode4food/waypost/pkg/tracker"
)

var (
	cfg *config.Config

	logsRoot   string
	sessionID  string
	logLevel   string
	jsonOutput bool
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var rootCmd = &cobra.Command{
	Use:   "waypost",
	Short: "waypost - Session-scoped flow tracking for coding agents",
	Long: `Waypost records the progress of multi-step workflows as per-session
event logs and reconstructs their state on demand. Logs live under a
shared root so any number of short-lived processes can track the same
session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logsRoot, "logs-root", "",
		"Session log directory (default: $WAYPOST_LOGS_ROOT or "+
			config.DefaultLogsRoot+")")
	flags.StringVar(&sessionID, "session", "",
		"Session ID (default: $WAYPOST_SESSION or \"default\")")
	flags.StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration from the environment, lets flags override it,
// and installs the process logger
func setup() error {
	cfg = config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if logsRoot != "" {
		cfg.LogsRoot = logsRoot
	}
	if sessionID != "" {
		cfg.Session = api.SessionID(sessionID)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging()
	return nil
}

func setupLogging() {
	level, ok := logLevels[cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)
}

func newStore() *eventlog.Store {
	return eventlog.New(cfg.LogsRoot,
		eventlog.WithLockTimeout(cfg.LockTimeout()))
}

func newTracker(store *eventlog.Store) *tracker.Tracker {
	return tracker.New(catalog.Default(), store,
		tracker.WithSession(cfg.Session))
}

// outputJSON prints v as indented JSON on stdout
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
