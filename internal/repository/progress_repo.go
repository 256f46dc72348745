package repository

import (
	"time"

	"wordmatch/internal/database"
)

// ProgressRepository keeps the snapshot of each player's round in progress
type ProgressRepository struct {
	db *database.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

var upsertProgress = database.Upsert{
	Table:   "game_progress",
	Keys:    []string{"player_id"},
	Columns: []string{"player_id", "snapshot", "updated_at"},
	Replace: []string{"snapshot", "updated_at"},
}

// Save stores the encoded snapshot, replacing any previous one
func (r *ProgressRepository) Save(playerID string, snapshot []byte) error {
	return r.db.Upsert(upsertProgress, playerID, string(snapshot), time.Now().UTC())
}

// Load returns the stored snapshot or ErrNotFound
func (r *ProgressRepository) Load(playerID string) ([]byte, error) {
	var snapshot string
	err := r.db.QueryRow(`SELECT snapshot FROM game_progress WHERE player_id = ?`, playerID).Scan(&snapshot)
	if err != nil {
		return nil, notFound(err)
	}
	return []byte(snapshot), nil
}

// Delete removes the stored snapshot
func (r *ProgressRepository) Delete(playerID string) error {
	_, err := r.db.Exec(`DELETE FROM game_progress WHERE player_id = ?`, playerID)
	return err
}
