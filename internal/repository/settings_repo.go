package repository

import (
	"time"

	"wordmatch/internal/database"
	"wordmatch/internal/models"
)

// SettingsRepository stores player preferences
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns a player's stored settings or ErrNotFound
func (r *SettingsRepository) Get(playerID string) (*models.PlayerSettings, error) {
	settings := models.PlayerSettings{PlayerID: playerID}
	query := `SELECT mode, difficulty, sound_enabled FROM player_settings WHERE player_id = ?`
	err := r.db.QueryRow(query, playerID).Scan(&settings.Mode, &settings.Difficulty, &settings.SoundEnabled)
	if err != nil {
		return nil, notFound(err)
	}
	return &settings, nil
}

var upsertSettings = database.Upsert{
	Table:   "player_settings",
	Keys:    []string{"player_id"},
	Columns: []string{"player_id", "mode", "difficulty", "sound_enabled", "updated_at"},
	Replace: []string{"mode", "difficulty", "sound_enabled", "updated_at"},
}

// Save updates or inserts a player's settings
func (r *SettingsRepository) Save(s models.PlayerSettings) error {
	return r.db.Upsert(upsertSettings, s.PlayerID, s.Mode, s.Difficulty, s.SoundEnabled, time.Now().UTC())
}
