package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tomblanch118/DAB/internal/game"
)

// SaveResult records a finished session. Saving the same session twice
// keeps the first record.
func (p *PostgresClient) SaveResult(ctx context.Context, r game.Result) error {
	var reason *string
	if r.BoomReason != "" {
		reason = &r.BoomReason
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO game_results
			(session_id, round_name, outcome, boom_reason, strikes, remaining_ms, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO NOTHING
	`, r.SessionID, r.Round, r.Outcome, reason, r.Strikes, r.RemainingMs, r.StartedAt, r.FinishedAt)

	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// ListResults returns the most recent results, newest first.
func (p *PostgresClient) ListResults(ctx context.Context, limit int) ([]game.Result, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx, `
		SELECT session_id, round_name, outcome, COALESCE(boom_reason, ''), strikes, remaining_ms, started_at, finished_at
		FROM game_results
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (game.Result, error) {
		var r game.Result
		err := row.Scan(&r.SessionID, &r.Round, &r.Outcome, &r.BoomReason,
			&r.Strikes, &r.RemainingMs, &r.StartedAt, &r.FinishedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}

	return results, nil
}
