package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhil/fleetdispatch/internal/model"
)

// SnapshotRepository archives dispatch runs in Postgres: one row per
// run, one row per reassignment tick. The archive is write-only from
// the engine's point of view; nothing in the assignment path ever
// reads it back, so a failed insert costs a log line, not a tick.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new run archive over the given pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// EnsureSchema creates the archive tables if they do not exist.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS dispatch_runs (
			id          UUID PRIMARY KEY,
			seed        BIGINT NOT NULL,
			day_start   INT NOT NULL,
			day_end     INT NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			finished_at TIMESTAMPTZ,
			metrics     JSONB
		);
		CREATE TABLE IF NOT EXISTS tick_snapshots (
			run_id     UUID NOT NULL REFERENCES dispatch_runs(id),
			tick_time  INT NOT NULL,
			final      BOOLEAN NOT NULL DEFAULT false,
			snapshot   JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, tick_time, final)
		);
	`)
	if err != nil {
		return fmt.Errorf("snapshots: ensure schema: %w", err)
	}
	return nil
}

// CreateRun registers a new run and returns its id.
func (r *SnapshotRepository) CreateRun(ctx context.Context, seed int64, dayStart, dayEnd int) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dispatch_runs (id, seed, day_start, day_end)
		VALUES ($1, $2, $3, $4)
	`, id, seed, dayStart, dayEnd)
	if err != nil {
		return uuid.Nil, fmt.Errorf("snapshots: create run: %w", err)
	}
	return id, nil
}

// SaveTick archives one tick snapshot under the run.
func (r *SnapshotRepository) SaveTick(ctx context.Context, runID uuid.UUID, snap model.TickSnapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshots: marshal tick %d: %w", snap.Time, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tick_snapshots (run_id, tick_time, final, snapshot)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, tick_time, final) DO UPDATE SET snapshot = EXCLUDED.snapshot
	`, runID, snap.Time, snap.Final, doc)
	if err != nil {
		return fmt.Errorf("snapshots: save tick %d: %w", snap.Time, err)
	}
	return nil
}

// FinishRun stamps the run complete with its final metrics.
func (r *SnapshotRepository) FinishRun(ctx context.Context, runID uuid.UUID, m model.Metrics) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("snapshots: marshal metrics: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE dispatch_runs
		SET finished_at = $2, metrics = $3
		WHERE id = $1
	`, runID, time.Now(), doc)
	if err != nil {
		return fmt.Errorf("snapshots: finish run: %w", err)
	}
	return nil
}
