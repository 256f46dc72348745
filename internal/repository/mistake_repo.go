package repository

import (
	"time"

	"wordmatch/internal/database"
	"wordmatch/internal/models"
)

// MistakeRepository stores the per-player mistake ledger
type MistakeRepository struct {
	db *database.DB
}

// NewMistakeRepository creates a new mistake repository
func NewMistakeRepository(db *database.DB) *MistakeRepository {
	return &MistakeRepository{db: db}
}

var upsertMistake = database.Upsert{
	Table:     "mistakes",
	Keys:      []string{"player_id", "word"},
	Columns:   []string{"player_id", "word", "count", "updated_at"},
	Replace:   []string{"updated_at"},
	Increment: []string{"count"},
}

// Increment adds one failed attempt for word and returns the new count
func (r *MistakeRepository) Increment(playerID, word string) (int, error) {
	now := time.Now().UTC()
	var count int
	err := r.db.WithTx(func(tx *database.Tx) error {
		if err := tx.Upsert(upsertMistake, playerID, word, 1, now); err != nil {
			return err
		}
		return tx.QueryRow(`SELECT count FROM mistakes WHERE player_id = ? AND word = ?`, playerID, word).Scan(&count)
	})
	return count, err
}

// List returns a player's ledger, most frequent first
func (r *MistakeRepository) List(playerID string) ([]models.MistakeEntry, error) {
	query := `
		SELECT word, count, updated_at
		FROM mistakes
		WHERE player_id = ?
		ORDER BY count DESC, word ASC
	`
	rows, err := r.db.Query(query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.MistakeEntry{}
	for rows.Next() {
		var e models.MistakeEntry
		if err := rows.Scan(&e.Word, &e.Count, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the ledger as word -> count
func (r *MistakeRepository) Counts(playerID string) (map[string]int, error) {
	entries, err := r.List(playerID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.Word] = e.Count
	}
	return counts, nil
}

// Clear deletes a player's ledger
func (r *MistakeRepository) Clear(playerID string) error {
	_, err := r.db.Exec(`DELETE FROM mistakes WHERE player_id = ?`, playerID)
	return err
}
