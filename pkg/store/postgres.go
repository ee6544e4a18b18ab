package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"go.uber.org/zap"
)

const (
	pgSchema = `
CREATE TABLE IF NOT EXISTS feature_configs (
    guild_id   TEXT NOT NULL,
    feature    TEXT NOT NULL,
    record     JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (guild_id, feature)
)`
	pgUpsert = `
INSERT INTO feature_configs (guild_id, feature, record)
VALUES ($1, $2, $3)
ON CONFLICT (guild_id, feature) DO UPDATE SET
    record = EXCLUDED.record,
    updated_at = now()`
	pgRead = `SELECT record FROM feature_configs WHERE guild_id = $1 AND feature = $2`
)

var _ Store = (*Postgres)(nil)

// Postgres stores records as JSONB rows.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

type pgRow struct {
	Record []byte `db:"record"`
}

// OpenPostgres connects to dsn and creates the table when missing.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool, logger: logger.Named("postgres")}, nil
}

// Upsert replaces the record of (guildID, featureKey).
func (p *Postgres) Upsert(ctx context.Context, guildID, featureKey string, rec wizard.Record) error {
	log := p.logger.With(zap.String("guild", guildID), zap.String("feature", featureKey))
	data, err := encode(rec)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, pgUpsert, guildID, featureKey, data); err != nil {
		log.Error("upsert failed", zap.Error(err))
		return fmt.Errorf("upsert %s/%s: %w", guildID, featureKey, err)
	}
	log.Debug("record upserted")
	return nil
}

// Read returns the record of (guildID, featureKey).
func (p *Postgres) Read(ctx context.Context, guildID, featureKey string) (wizard.Record, bool, error) {
	var row pgRow
	err := pgxscan.Get(ctx, p.pool, &row, pgRead, guildID, featureKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s/%s: %w", guildID, featureKey, err)
	}
	rec, err := decode(row.Record)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
