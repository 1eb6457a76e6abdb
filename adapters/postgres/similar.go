// Package postgres answers similarity queries from a pgvector table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/r4z4/loanactors/core/similar"
)

const nearestQuery = `SELECT entry_name FROM writing_sample ORDER BY embedding <-> $1::vector LIMIT $2`

type Config struct {
	DSN string
	// MaxConns caps the pool size. Zero keeps the pgx default.
	MaxConns int32
	// ConnectTimeout bounds the initial ping. Defaults to 10s.
	ConnectTimeout time.Duration
}

// SimilarStore implements similar.Querier.
type SimilarStore struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, cfg Config) (*SimilarStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &SimilarStore{pool: pool}, nil
}

func (s *SimilarStore) Nearest(ctx context.Context, vec []float32, limit int) ([]similar.Match, error) {
	rows, err := s.pool.Query(ctx, nearestQuery, similar.VectorLiteral(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest: %w", err)
	}
	defer rows.Close()

	out := make([]similar.Match, 0, limit)
	for rows.Next() {
		var m similar.Match
		if err := rows.Scan(&m.EntryName); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *SimilarStore) Close() error {
	s.pool.Close()
	return nil
}

var _ similar.Querier = (*SimilarStore)(nil)
