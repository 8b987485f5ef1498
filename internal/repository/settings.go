package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SettingsStore is a key-value store for session setup values (seat count,
// bot count). It is read once at session start; the engine never touches it.
type SettingsStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects, pings and ensures the settings table exists.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*SettingsStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect settings store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping settings store: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS session_settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure settings table: %w", err)
	}

	logger.Info("settings store ready")
	return &SettingsStore{pool: pool, logger: logger}, nil
}

func (s *SettingsStore) Close() {
	s.pool.Close()
}

// Get returns the value for key; ok is false when the key is absent.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM session_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts one setting.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// GetInt reads an integer setting, falling back on absence or a bad value.
func (s *SettingsStore) GetInt(ctx context.Context, key string, fallback int) int {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		s.logger.Warn("settings read failed", zap.String("key", key), zap.Error(err))
		return fallback
	}
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("setting is not an integer",
			zap.String("key", key), zap.String("value", raw))
		return fallback
	}
	return n
}
