package repository

import (
	"database/sql"
	"time"

	"wordmatch/internal/database"
	"wordmatch/internal/models"
)

// StatsRepository keeps cumulative game statistics per player
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get returns a player's statistics, zeroed when the player has none yet
func (r *StatsRepository) Get(playerID string) (*models.GameStats, error) {
	query := `
		SELECT games_started, games_completed, time_ups, best_score,
		       total_score, total_matches, total_mistakes, last_played_at
		FROM game_stats
		WHERE player_id = ?
	`
	stats := &models.GameStats{PlayerID: playerID}
	var lastPlayed sql.NullTime
	err := r.db.QueryRow(query, playerID).Scan(
		&stats.GamesStarted,
		&stats.GamesCompleted,
		&stats.TimeUps,
		&stats.BestScore,
		&stats.TotalScore,
		&stats.TotalMatches,
		&stats.TotalMistakes,
		&lastPlayed,
	)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}
	if lastPlayed.Valid {
		stats.LastPlayedAt = &lastPlayed.Time
	}
	return stats, nil
}

// RecordStart counts a newly dealt round
func (r *StatsRepository) RecordStart(playerID string) error {
	return r.bump(playerID, "games_started = games_started + 1")
}

// RecordMistake counts a failed match attempt
func (r *StatsRepository) RecordMistake(playerID string) error {
	return r.bump(playerID, "total_mistakes = total_mistakes + 1")
}

// RecordMatch counts a matched pair
func (r *StatsRepository) RecordMatch(playerID string) error {
	return r.bump(playerID, "total_matches = total_matches + 1")
}

// RecordCompletion adds a finished round and its final score
func (r *StatsRepository) RecordCompletion(playerID string, score int) error {
	return r.finish(playerID, "games_completed = games_completed + 1", score)
}

// RecordTimeUp adds a round that ran out of time and the score it reached
func (r *StatsRepository) RecordTimeUp(playerID string, score int) error {
	return r.finish(playerID, "time_ups = time_ups + 1", score)
}

func (r *StatsRepository) finish(playerID, counter string, score int) error {
	now := time.Now().UTC()
	return r.db.WithTx(func(tx *database.Tx) error {
		if err := r.ensure(tx, playerID, now); err != nil {
			return err
		}
		_, err := tx.Exec(`
			UPDATE game_stats
			SET `+counter+`,
			    total_score = total_score + ?,
			    best_score = CASE WHEN best_score < ? THEN ? ELSE best_score END,
			    last_played_at = ?
			WHERE player_id = ?`,
			score, score, score, now, playerID)
		return err
	})
}

// bump applies a fixed counter update. counter is always a literal from this file.
func (r *StatsRepository) bump(playerID, counter string) error {
	now := time.Now().UTC()
	return r.db.WithTx(func(tx *database.Tx) error {
		if err := r.ensure(tx, playerID, now); err != nil {
			return err
		}
		_, err := tx.Exec(`UPDATE game_stats SET `+counter+`, last_played_at = ? WHERE player_id = ?`, now, playerID)
		return err
	})
}

var upsertStats = database.Upsert{
	Table:   "game_stats",
	Keys:    []string{"player_id"},
	Columns: []string{"player_id", "last_played_at"},
	Replace: []string{"last_played_at"},
}

// ensure creates the player's row on first use
func (r *StatsRepository) ensure(tx database.DBTX, playerID string, now time.Time) error {
	return tx.Upsert(upsertStats, playerID, now)
}
