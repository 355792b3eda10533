// Package postgres persists protocol stats snapshots, so a restart
// starts from the last-good values instead of an empty cache.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowonarc/internal/model"
)

// snapshotName keys the single current snapshot row.
const snapshotName = "protocol_stats"

// Store provides Postgres persistence for stats snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSnapshot stores the current stats as the latest snapshot.
func (s *Store) UpsertSnapshot(ctx context.Context, stats model.ProtocolStats) error {
	breakdown, err := json.Marshal(stats.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO stats_snapshots (
			name, tvl_usd, volume_usd, transactions, breakdown, source, as_of, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (name)
		DO UPDATE SET
			tvl_usd = EXCLUDED.tvl_usd,
			volume_usd = EXCLUDED.volume_usd,
			transactions = EXCLUDED.transactions,
			breakdown = EXCLUDED.breakdown,
			source = EXCLUDED.source,
			as_of = EXCLUDED.as_of,
			updated_at = now()
	`,
		snapshotName,
		stats.TVLUSD,
		stats.VolumeUSD,
		stats.Transactions,
		breakdown,
		string(stats.Source),
		stats.UpdatedAt,
	)
	return err
}

// LatestSnapshot returns the stored snapshot, if any. A loaded
// snapshot is always tagged cached; its age is whatever as_of says.
func (s *Store) LatestSnapshot(ctx context.Context) (model.ProtocolStats, bool, error) {
	var (
		stats     model.ProtocolStats
		breakdown []byte
		asOf      time.Time
	)
	row := s.pool.QueryRow(ctx, `
		SELECT tvl_usd, volume_usd, transactions, breakdown, as_of
		FROM stats_snapshots WHERE name=$1
	`, snapshotName)
	if err := row.Scan(&stats.TVLUSD, &stats.VolumeUSD, &stats.Transactions, &breakdown, &asOf); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProtocolStats{}, false, nil
		}
		return model.ProtocolStats{}, false, err
	}

	if len(breakdown) > 0 && string(breakdown) != "null" {
		var b model.Breakdown
		if err := json.Unmarshal(breakdown, &b); err != nil {
			return model.ProtocolStats{}, false, fmt.Errorf("unmarshal breakdown: %w", err)
		}
		stats.Breakdown = &b
	}
	stats.Source = model.SourceCached
	stats.UpdatedAt = asOf
	return stats, true, nil
}
