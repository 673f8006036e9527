package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kode4food/waypost/internal/monitor"
	"github.com/kode4food/waypost/internal/server"
	"github.com/kode4food/waypost/pkg/catalog"
	"github.com/kode4food/waypost/pkg/log"
)

// waypost wires the monitor daemon: the log watcher plus the read-only
// HTTP inspector in front of it
type waypost struct {
	mon        *monitor.Monitor
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor daemon",
	Long: `Watch the session logs under the logs root and serve their live
state over HTTP and websockets. The daemon never writes events; trackers
in other processes keep appending while it runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &waypost{
			quit: make(chan os.Signal, 1),
		}
		return s.run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func (s *waypost) run(ctx context.Context) error {
	slog.Info("Waypost monitor starting",
		slog.String("logs_root", cfg.LogsRoot),
		slog.String("api_host", cfg.APIHost),
		slog.Int("api_port", cfg.APIPort),
		slog.String("log_level", cfg.LogLevel))

	reg := catalog.Default()
	s.mon = monitor.New(newStore(), reg,
		monitor.WithDebounce(cfg.WatchDebounce()))
	if err := s.mon.Start(ctx); err != nil {
		return err
	}
	s.startServer(reg)

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *waypost) startServer(reg *catalog.Registry) {
	s.apiServer = server.NewServer(s.mon, reg)

	s.httpServer = &http.Server{
		Addr:    cfg.APIAddr(),
		Handler: s.apiServer.SetupRoutes(),
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *waypost) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.mon.Stop()

	slog.Info("Monitor exited")
}
