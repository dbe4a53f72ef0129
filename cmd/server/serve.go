package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := api.NewAPIHandler(api.Deps{
		Store:       a.store,
		Internships: a.internships,
		Students:    a.students,
		Matching:    a.matching,
		Bus:         a.bus,
		JWTSecret:   cfg.JWTSecret,
		MatchLimit:  cfg.MatchLimit,
		Logger:      log,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := newServer(serverAddr, api.NewRouter(handler, log))

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", serverAddr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", serverAddr, err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited gracefully")
	return nil
}

// newServer builds the API server. Request contexts are cancelled when
// Shutdown starts so long-lived notification streams end instead of holding
// the shutdown open.
func newServer(addr string, h http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // embedding and generation calls can take time
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
