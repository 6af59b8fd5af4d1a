package repositories

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"taf-timeline/pkg/logger"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

var schema = map[string]string{
	DriverSQLite: `CREATE TABLE IF NOT EXISTS settings (
		setting_key   TEXT PRIMARY KEY,
		setting_value TEXT NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	DriverMySQL: `CREATE TABLE IF NOT EXISTS settings (
		setting_key   VARCHAR(64) NOT NULL PRIMARY KEY,
		setting_value TEXT NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
}

var upsert = map[string]string{
	DriverSQLite: `INSERT INTO settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at`,
	DriverMySQL: `INSERT INTO settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value), updated_at = VALUES(updated_at)`,
}

// SQLSettingsStore keeps settings in a single key-value table.
type SQLSettingsStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
	l      *logger.Logger
}

func OpenSQLSettingsStore(ctx context.Context, driver, dsn string, l *logger.Logger) (*SQLSettingsStore, error) {
	ddl, ok := schema[driver]
	if !ok {
		return nil, errors.Errorf("unsupported settings driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if driver == DriverSQLite {
		// a single connection keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if _, err = db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create settings table")
	}

	l.Info("settings store ready", map[string]any{"driver": driver})

	return &SQLSettingsStore{
		db:     db,
		driver: driver,
		now:    time.Now,
		l:      l,
	}, nil
}

func (s *SQLSettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT setting_value FROM settings WHERE setting_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read setting %s", key)
	}
	return value, true, nil
}

func (s *SQLSettingsStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsert[s.driver], key, value, s.now().UTC()); err != nil {
		return errors.Wrapf(err, "failed to write setting %s", key)
	}
	return nil
}

func (s *SQLSettingsStore) Close() error {
	return s.db.Close()
}

type MemorySettingsStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{values: map[string]string{}}
}

func (m *MemorySettingsStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemorySettingsStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemorySettingsStore) Close() error {
	return nil
}
