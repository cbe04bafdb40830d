package cache

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/bencher/internal/monitoring"
)

// AttachAdminRoutes mounts debug pages for the cache database on mux: a live
// SQL console, recent runs, and a gzip backup download.
func AttachAdminRoutes(mux *http.ServeMux, store *SQLiteStore) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+store.Path(), store.DB(), &tailsql.DBOptions{
		Label: "Bencher cache",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("runs", "Recent sweep runs", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runs, err := store.ListRuns(r.Context(), r.URL.Query().Get("benchmark"), 100)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(runs); err != nil {
			monitoring.Logf("[cache] encoding runs: %v", err)
		}
	}))

	debug.Handle("backup", "Create and download a backup of the cache database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := filepath.Join(os.TempDir(), fmt.Sprintf("bencher-backup-%d.db", time.Now().UnixNano()))
		if _, err := store.DB().ExecContext(r.Context(), "VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				monitoring.Logf("[cache] failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", filepath.Base(backupPath)))
		w.Header().Set("Content-Type", "application/gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		if _, err := io.Copy(gz, backupFile); err != nil {
			monitoring.Logf("[cache] writing backup: %v", err)
		}
	}))
	return nil
}
