package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/bencher/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultPath is the cache database used when none is configured.
const DefaultPath = "bencher_cache.db"

// SQLiteStore is a Store backed by a SQLite database file. It also keeps
// the run history.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

// OpenSQLite opens or creates the database at path and migrates it to the
// latest schema. The special path ":memory:" opens a private in-memory
// database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open cache database %s: %w", path, err)
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle for admin tooling.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// MigrateUp runs all pending migrations. It is a no-op on an up to date
// database.
func (s *SQLiteStore) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Not closing m: that would close the shared database handle.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current schema version and dirty state.
func (s *SQLiteStore) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *SQLiteStore) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	var val []byte
	err := retryOnBusy(func() error {
		return s.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&val)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return val, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, val []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	query := `
		INSERT INTO cache_entries (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at
	`
	err := retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UnixNano())
		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int64
	err := retryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE substr(key, 1, ?) = ?`,
			utf8.RuneCountInString(prefix), prefix)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deleting prefix %q: %w", prefix, err)
	}
	return int(n), nil
}

func (s *SQLiteStore) Count(ctx context.Context, prefix string) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_entries WHERE substr(key, 1, ?) = ?`,
		utf8.RuneCountInString(prefix), prefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting prefix %q: %w", prefix, err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	_, ckErr := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	return multierr.Append(ckErr, s.db.Close())
}
