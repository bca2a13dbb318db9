// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkarlsen/spireline/internal/cache"
	"github.com/mkarlsen/spireline/internal/engine"
)

// SaveMatch persists a full match save: the initial snapshot plus every
// history entry recorded so far. Idempotent; re-saving a match replaces its
// history suffix.
func SaveMatch(ctx context.Context, save engine.MatchSave) error {
	initial, err := json.Marshal(save.InitialState)
	if err != nil {
		return fmt.Errorf("marshal initial state: %w", err)
	}

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsert := `
			INSERT INTO matches (id, initial_state, status, updated_at)
			VALUES ($1, $2, 'active', now())
			ON CONFLICT (id) DO UPDATE SET updated_at = now()
		`
		if _, e := tx.Exec(ctx, upsert, save.MatchID, initial); e != nil {
			return e
		}

		for _, entry := range save.History {
			payload, e := json.Marshal(entry)
			if e != nil {
				return fmt.Errorf("marshal history entry %d: %w", entry.Index, e)
			}
			q := `
				INSERT INTO match_history (match_id, action_index, entry, recorded_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (match_id, action_index) DO UPDATE SET entry = $3
			`
			if _, e := tx.Exec(ctx, q, save.MatchID, entry.Index, payload, entry.Timestamp); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx save match: %w", err)
	}
	return nil
}

// LoadMatch reads back a match save. The caller replays the history against
// the initial state to reconstruct the current state.
func LoadMatch(ctx context.Context, matchID uuid.UUID) (engine.MatchSave, error) {
	save := engine.MatchSave{MatchID: matchID}

	var initial []byte
	row := DB.QueryRow(ctx, `SELECT initial_state FROM matches WHERE id = $1`, matchID)
	if err := row.Scan(&initial); err != nil {
		return save, fmt.Errorf("load match %s: %w", matchID, err)
	}
	if err := json.Unmarshal(initial, &save.InitialState); err != nil {
		return save, fmt.Errorf("decode initial state: %w", err)
	}

	rows, err := DB.Query(ctx,
		`SELECT entry FROM match_history WHERE match_id = $1 ORDER BY action_index`, matchID)
	if err != nil {
		return save, fmt.Errorf("load match history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return save, err
		}
		var entry engine.HistoryEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return save, fmt.Errorf("decode history entry: %w", err)
		}
		save.History = append(save.History, entry)
	}
	return save, rows.Err()
}

// InsertHistoryRecords batch-inserts queue records drained by the historian.
func InsertHistoryRecords(ctx context.Context, records []cache.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			payload, err := json.Marshal(rec.Entry)
			if err != nil {
				return fmt.Errorf("marshal record %d for match %s: %w", rec.Index, rec.MatchID, err)
			}
			q := `
				INSERT INTO match_history (match_id, action_index, entry, recorded_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (match_id, action_index) DO NOTHING
			`
			recordedAt := time.UnixMilli(rec.Timestamp)
			if _, err := tx.Exec(ctx, q, rec.MatchID, rec.Index, payload, recordedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// TouchMatch bumps the activity timestamp for the inactivity sweep.
func TouchMatch(ctx context.Context, matchID uuid.UUID) error {
	_, err := DB.Exec(ctx,
		`UPDATE matches SET updated_at = now() WHERE id = $1`, matchID)
	return err
}

// MarkAbandonedMatches flags matches with no activity inside the window.
func MarkAbandonedMatches(ctx context.Context, inactiveFor time.Duration) (int64, error) {
	tag, err := DB.Exec(ctx, `
		UPDATE matches SET status = 'abandoned'
		WHERE status = 'active' AND updated_at < now() - $1::interval
	`, fmt.Sprintf("%d seconds", int(inactiveFor.Seconds())))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
