package models

import "time"

// GameStats holds cumulative statistics for a player
type GameStats struct {
	PlayerID       string     `json:"-"`
	GamesStarted   int        `json:"games_started"`
	GamesCompleted int        `json:"games_completed"`
	TimeUps        int        `json:"time_ups"`
	BestScore      int        `json:"best_score"`
	TotalScore     int64      `json:"total_score"`
	TotalMatches   int        `json:"total_matches"`
	TotalMistakes  int        `json:"total_mistakes"`
	LastPlayedAt   *time.Time `json:"last_played_at,omitempty"`
}

// CompletionRate is the share of started games that were completed
func (s GameStats) CompletionRate() float64 {
	if s.GamesStarted == 0 {
		return 0
	}
	return float64(s.GamesCompleted) / float64(s.GamesStarted)
}

// PlayerSettings are the persisted preferences of a player
type PlayerSettings struct {
	PlayerID     string `json:"-"`
	Mode         string `json:"mode"`
	Difficulty   string `json:"difficulty"`
	SoundEnabled bool   `json:"sound_enabled"`
}

// DefaultPlayerSettings returns the preferences of a new player
func DefaultPlayerSettings(playerID string) PlayerSettings {
	return PlayerSettings{
		PlayerID:     playerID,
		Mode:         "click",
		Difficulty:   "off",
		SoundEnabled: true,
	}
}
