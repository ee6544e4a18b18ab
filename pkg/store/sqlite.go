package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	sqliteSchema = `
CREATE TABLE IF NOT EXISTS feature_configs (
    guild_id   TEXT NOT NULL,
    feature    TEXT NOT NULL,
    record     TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (guild_id, feature)
)`
	sqliteUpsert = `
INSERT INTO feature_configs (guild_id, feature, record, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (guild_id, feature) DO UPDATE SET
    record = excluded.record,
    updated_at = excluded.updated_at`
	sqliteRead = `SELECT record FROM feature_configs WHERE guild_id = ? AND feature = ?`
)

var _ Store = (*SQLite)(nil)

// SQLite stores records in a single SQLite table.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (and creates) the database at path.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if path == "" {
		path = "guildwiz.db"
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, logger: logger.Named("sqlite")}, nil
}

// Upsert replaces the record of (guildID, featureKey).
func (s *SQLite) Upsert(ctx context.Context, guildID, featureKey string, rec wizard.Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, guildID, featureKey, string(data), time.Now().UTC()); err != nil {
		s.logger.Error("upsert failed", zap.String("guild", guildID), zap.String("feature", featureKey), zap.Error(err))
		return fmt.Errorf("upsert %s/%s: %w", guildID, featureKey, err)
	}
	s.logger.Debug("record upserted", zap.String("guild", guildID), zap.String("feature", featureKey))
	return nil
}

// Read returns the record of (guildID, featureKey).
func (s *SQLite) Read(ctx context.Context, guildID, featureKey string) (wizard.Record, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, sqliteRead, guildID, featureKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s/%s: %w", guildID, featureKey, err)
	}
	rec, err := decode([]byte(data))
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
