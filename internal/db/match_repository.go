package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Flag event kinds.
const (
	FlagCaptured    = "captured"
	FlagNeutralized = "neutralized"
)

// Match is one row of the matches table.
type Match struct {
	ID        int64
	Layout    string
	StartedAt time.Time
	EndedAt   *time.Time
	Winner    *string
}

// PhaseRow is one phase of a match.
type PhaseRow struct {
	Index   int
	Name    string
	Kind    string
	BeganAt time.Time
	EndedAt *time.Time
}

// FlagEvent is a capture or neutralization.
type FlagEvent struct {
	Flag         string
	FlagIndex    int
	Kind         string
	Team         string
	FirstCapture bool
	OccurredAt   time.Time
}

// Standing is a team's final ticket count.
type Standing struct {
	Team    string
	Tickets int
}

// MatchResult closes a match. Winner is empty for a draw.
type MatchResult struct {
	Winner    string
	EndedAt   time.Time
	Standings []Standing
}

// MatchRepository reads and writes match history.
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository создаёт репозиторий поверх pool.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// CreateMatch inserts a started match and returns its id.
func (r *MatchRepository) CreateMatch(ctx context.Context, layout string, startedAt time.Time) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO matches (layout, started_at) VALUES ($1, $2) RETURNING id`,
		layout, startedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating match for layout %q: %w", layout, err)
	}
	return id, nil
}

// BeginPhase records that a phase began.
func (r *MatchRepository) BeginPhase(ctx context.Context, matchID int64, p PhaseRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO match_phases (match_id, phase_index, name, kind, began_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (match_id, phase_index) DO UPDATE
		 SET name = EXCLUDED.name, kind = EXCLUDED.kind, began_at = EXCLUDED.began_at, ended_at = NULL`,
		matchID, p.Index, p.Name, p.Kind, p.BeganAt,
	)
	if err != nil {
		return fmt.Errorf("recording phase %d of match %d: %w", p.Index, matchID, err)
	}
	return nil
}

// EndPhase stamps the end time of a phase.
func (r *MatchRepository) EndPhase(ctx context.Context, matchID int64, index int, endedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE match_phases SET ended_at = $1 WHERE match_id = $2 AND phase_index = $3`,
		endedAt, matchID, index,
	)
	if err != nil {
		return fmt.Errorf("ending phase %d of match %d: %w", index, matchID, err)
	}
	return nil
}

// AddFlagEvent appends a flag event.
func (r *MatchRepository) AddFlagEvent(ctx context.Context, matchID int64, ev FlagEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO flag_events (match_id, flag, flag_index, kind, team, first_capture, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		matchID, ev.Flag, ev.FlagIndex, ev.Kind, ev.Team, ev.FirstCapture, ev.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("adding %s event for flag %q: %w", ev.Kind, ev.Flag, err)
	}
	return nil
}

// FinishMatch stores the result and the standings in a single transaction.
func (r *MatchRepository) FinishMatch(ctx context.Context, matchID int64, res MatchResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for match %d: %w", matchID, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "match", matchID, "error", err)
		}
	}()

	var winner *string
	if res.Winner != "" {
		winner = &res.Winner
	}
	tag, err := tx.Exec(ctx,
		`UPDATE matches SET ended_at = $1, winner = $2 WHERE id = $3`,
		res.EndedAt, winner, matchID,
	)
	if err != nil {
		return fmt.Errorf("finishing match %d: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finishing match %d: %w", matchID, pgx.ErrNoRows)
	}

	if len(res.Standings) > 0 {
		batch := &pgx.Batch{}
		for _, s := range res.Standings {
			batch.Queue(
				`INSERT INTO match_standings (match_id, team, tickets) VALUES ($1, $2, $3)
				 ON CONFLICT (match_id, team) DO UPDATE SET tickets = EXCLUDED.tickets`,
				matchID, s.Team, s.Tickets,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("saving standings of match %d: %w", matchID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction for match %d: %w", matchID, err)
	}
	slog.Info("match saved", "match", matchID, "winner", res.Winner, "standings", len(res.Standings))
	return nil
}

// GetMatch returns a match by id.
// Возвращает nil, nil если матч не найден.
func (r *MatchRepository) GetMatch(ctx context.Context, id int64) (*Match, error) {
	var m Match
	err := r.pool.QueryRow(ctx,
		`SELECT id, layout, started_at, ended_at, winner FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &m.Layout, &m.StartedAt, &m.EndedAt, &m.Winner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying match %d: %w", id, err)
	}
	return &m, nil
}

// Phases returns the phases of a match in order.
func (r *MatchRepository) Phases(ctx context.Context, matchID int64) ([]PhaseRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT phase_index, name, kind, began_at, ended_at
		 FROM match_phases WHERE match_id = $1 ORDER BY phase_index`, matchID)
	if err != nil {
		return nil, fmt.Errorf("querying phases of match %d: %w", matchID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PhaseRow, error) {
		var p PhaseRow
		err := row.Scan(&p.Index, &p.Name, &p.Kind, &p.BeganAt, &p.EndedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning phases of match %d: %w", matchID, err)
	}
	return out, nil
}

// FlagEvents returns the flag events of a match in order.
func (r *MatchRepository) FlagEvents(ctx context.Context, matchID int64) ([]FlagEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT flag, flag_index, kind, team, first_capture, occurred_at
		 FROM flag_events WHERE match_id = $1 ORDER BY occurred_at, id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("querying flag events of match %d: %w", matchID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (FlagEvent, error) {
		var ev FlagEvent
		err := row.Scan(&ev.Flag, &ev.FlagIndex, &ev.Kind, &ev.Team, &ev.FirstCapture, &ev.OccurredAt)
		return ev, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning flag events of match %d: %w", matchID, err)
	}
	return out, nil
}

// Standings returns the final standings of a match, highest first.
func (r *MatchRepository) Standings(ctx context.Context, matchID int64) ([]Standing, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT team, tickets FROM match_standings WHERE match_id = $1 ORDER BY tickets DESC, team`, matchID)
	if err != nil {
		return nil, fmt.Errorf("querying standings of match %d: %w", matchID, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Standing])
	if err != nil {
		return nil, fmt.Errorf("scanning standings of match %d: %w", matchID, err)
	}
	return out, nil
}
