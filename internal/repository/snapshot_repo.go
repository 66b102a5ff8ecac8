package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"plantsim/internal/models"
)

type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

var _ SnapshotRepo = (*SnapshotSQLite)(nil)

const (
	plantSnapshotRowID = 1

	insertOrUpdateSnapshotSQL = `
		INSERT INTO plant_snapshot (id, engine_state, tick, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			engine_state=excluded.engine_state,
			tick=excluded.tick,
			payload=excluded.payload,
			updated_at=excluded.updated_at
	`

	selectSnapshotSQL = `
		SELECT payload, updated_at FROM plant_snapshot WHERE id=?
	`
)

// Save upserts the single plant_snapshot row (id always 1). The full
// snapshot is stored as JSON; engine_state and tick are duplicated in
// their own columns for quick inspection.
func (r *SnapshotSQLite) Save(ctx context.Context, s models.PlantSnapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}

	// ensure UpdatedAt is always persisted as UTC; set if zero
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateSnapshotSQL,
		plantSnapshotRowID,
		string(s.EngineState),
		s.Tick,
		string(payload),
		tsUTC,
	)
	return err
}

// Load fetches the single plant_snapshot row (id=1).
func (r *SnapshotSQLite) Load(ctx context.Context) (models.PlantSnapshot, error) {
	row := r.db.QueryRowContext(ctx, selectSnapshotSQL, plantSnapshotRowID)

	var payload string
	var updatedAt time.Time
	if err := row.Scan(&payload, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PlantSnapshot{}, nil // no snapshot yet
		}
		return models.PlantSnapshot{}, err
	}

	var s models.PlantSnapshot
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return models.PlantSnapshot{}, err
	}
	s.UpdatedAt = updatedAt.UTC()

	return s, nil
}
