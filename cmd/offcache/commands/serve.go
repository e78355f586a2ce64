package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/achu-1612/offcache/metrics"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Keep probing the backend, sync on reconnect and serve Prometheus metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := metrics.NewRegistry()

		e, err := newEnv(ctx, reg)
		if err != nil {
			return err
		}
		defer e.Close()

		if e.prober != nil {
			e.prober.Start(ctx)

			defer func() {
				stop()
				e.prober.Wait()
			}()
		}

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Handle("/metrics", metrics.Handler(reg))
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			status := http.StatusOK
			if !e.cache.IsOnline() {
				status = http.StatusServiceUnavailable
			}

			w.WriteHeader(status)
		})

		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errc := make(chan error, 1)

		go func() {
			errc <- srv.ListenAndServe()
		}()

		cmd.PrintErrf("serving metrics on %s\n", cfg.Metrics.Addr)

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil

		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	},
}
