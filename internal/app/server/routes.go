package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"firewall-updater/internal/auth"
	"firewall-updater/internal/config"
	"firewall-updater/internal/updater"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Runner performs one blocklist update.
type Runner interface {
	Run(ctx context.Context) (*updater.Outcome, error)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, msg)
}

// NewRouter wires the trigger, health and version endpoints.
func NewRouter(cfg config.Config, runner Runner) http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", healthz)
	router.HandleFunc("GET /version", getVersion)
	router.Handle("/", auth.RequireToken(cfg.TriggerSecret, updateBlocklist(runner, cfg.RequestTimeout)))
	return router
}

// OpenRoutes serves the router on port until ctx is cancelled.
func OpenRoutes(ctx context.Context, cfg config.Config, runner Runner) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(cfg, runner),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.RequestTimeout + readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting firewall-updater on port :%d", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}
