package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/bencher/internal/cache"
	"github.com/banshee-data/bencher/internal/monitoring"
)

func newAdminCmd() *cobra.Command {
	var path, listen string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Serve debug pages for the cache database",
		Long: `Serves /debug/ with a live SQL console over the cache database, the recent
run list and a backup download.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cache.OpenSQLite(path)
			if err != nil {
				return err
			}
			defer store.Close()

			mux := http.NewServeMux()
			if err := cache.AttachAdminRoutes(mux, store); err != nil {
				return err
			}
			return serve(cmd.Context(), listen, mux)
		},
	}
	cmd.Flags().StringVar(&path, "cache", cache.DefaultPath, "cache database path")
	cmd.Flags().StringVar(&listen, "listen", "localhost:8090", "listen address")
	return cmd
}

// serve runs an HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("[admin] listening on http://%s/debug/", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("[admin] shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[admin] HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("[admin] HTTP server force close error: %v", err)
		}
	}
	return nil
}
