package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"wordmatch/internal/database"
	"wordmatch/internal/models"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exported_at"`
	DatabaseType string           `json:"database_type"`
	Mistakes     []MistakeBackup  `json:"mistakes"`
	Stats        []StatsBackup    `json:"stats"`
	Settings     []SettingsBackup `json:"settings"`
	Progress     []ProgressBackup `json:"progress"`
	Lists        []ListBackup     `json:"lists"`
}

// MistakeBackup represents one ledger row
type MistakeBackup struct {
	PlayerID  string    `json:"player_id"`
	Word      string    `json:"word"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatsBackup represents a player's cumulative statistics
type StatsBackup struct {
	PlayerID string `json:"player_id"`
	models.GameStats
}

// SettingsBackup represents a player's preferences
type SettingsBackup struct {
	PlayerID string `json:"player_id"`
	models.PlayerSettings
}

// ProgressBackup represents an in-progress round
type ProgressBackup struct {
	PlayerID  string          `json:"player_id"`
	Snapshot  json.RawMessage `json:"snapshot"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ListBackup represents an imported word list with its pairs
type ListBackup struct {
	PlayerID  string            `json:"player_id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Pairs     []models.WordPair `json:"pairs"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}
	log.Info().Str("path", outputPath).Msg("Database exported")
	return nil
}

// ExportToWriter exports the database as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
	}

	steps := []struct {
		name string
		fn   func(*BackupData) error
	}{
		{"mistakes", s.exportMistakes},
		{"stats", s.exportStats},
		{"settings", s.exportSettings},
		{"progress", s.exportProgress},
		{"lists", s.exportLists},
	}
	for _, step := range steps {
		if err := step.fn(backup); err != nil {
			return fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Info().
		Int("mistakes", len(backup.Mistakes)).
		Int("stats", len(backup.Stats)).
		Int("settings", len(backup.Settings)).
		Int("progress", len(backup.Progress)).
		Int("lists", len(backup.Lists)).
		Msg("Backup written")
	return nil
}

// Import restores a backup file
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup in a single transaction. Rows that
// already exist are overwritten; word lists are appended.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Info().Str("version", backup.Version).Time("exported_at", backup.ExportedAt).Msg("Importing backup")

	return s.db.WithTx(func(tx *database.Tx) error {
		if err := importMistakes(tx, backup.Mistakes); err != nil {
			return fmt.Errorf("failed to import mistakes: %w", err)
		}
		if err := importStats(tx, backup.Stats); err != nil {
			return fmt.Errorf("failed to import stats: %w", err)
		}
		if err := importSettings(tx, backup.Settings); err != nil {
			return fmt.Errorf("failed to import settings: %w", err)
		}
		if err := importProgress(tx, backup.Progress); err != nil {
			return fmt.Errorf("failed to import progress: %w", err)
		}
		if err := importLists(tx, backup.Lists); err != nil {
			return fmt.Errorf("failed to import lists: %w", err)
		}
		return nil
	})
}

// Clear deletes every player's data
func (s *BackupService) Clear() error {
	tables := []string{"word_pairs", "word_lists", "game_progress", "player_settings", "game_stats", "mistakes"}
	return s.db.WithTx(func(tx *database.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Debug().Str("table", table).Msg("Cleared table")
		}
		return nil
	})
}

func (s *BackupService) exportMistakes(backup *BackupData) error {
	rows, err := s.db.Query("SELECT player_id, word, count, updated_at FROM mistakes ORDER BY player_id, word")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m MistakeBackup
		if err := rows.Scan(&m.PlayerID, &m.Word, &m.Count, &m.UpdatedAt); err != nil {
			return err
		}
		backup.Mistakes = append(backup.Mistakes, m)
	}
	return rows.Err()
}

func (s *BackupService) exportStats(backup *BackupData) error {
	query := `SELECT player_id, games_started, games_completed, time_ups, best_score, total_score,
		total_matches, total_mistakes, last_played_at FROM game_stats ORDER BY player_id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var st StatsBackup
		var lastPlayed sql.NullTime
		if err := rows.Scan(&st.PlayerID, &st.GamesStarted, &st.GamesCompleted, &st.TimeUps, &st.BestScore,
			&st.TotalScore, &st.TotalMatches, &st.TotalMistakes, &lastPlayed); err != nil {
			return err
		}
		if lastPlayed.Valid {
			st.LastPlayedAt = &lastPlayed.Time
		}
		backup.Stats = append(backup.Stats, st)
	}
	return rows.Err()
}

func (s *BackupService) exportSettings(backup *BackupData) error {
	rows, err := s.db.Query("SELECT player_id, mode, difficulty, sound_enabled FROM player_settings ORDER BY player_id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var st SettingsBackup
		if err := rows.Scan(&st.PlayerID, &st.Mode, &st.Difficulty, &st.SoundEnabled); err != nil {
			return err
		}
		backup.Settings = append(backup.Settings, st)
	}
	return rows.Err()
}

func (s *BackupService) exportProgress(backup *BackupData) error {
	rows, err := s.db.Query("SELECT player_id, snapshot, updated_at FROM game_progress ORDER BY player_id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProgressBackup
		var snapshot string
		if err := rows.Scan(&p.PlayerID, &snapshot, &p.UpdatedAt); err != nil {
			return err
		}
		p.Snapshot = json.RawMessage(snapshot)
		backup.Progress = append(backup.Progress, p)
	}
	return rows.Err()
}

func (s *BackupService) exportLists(backup *BackupData) error {
	rows, err := s.db.Query("SELECT id, player_id, name, created_at FROM word_lists ORDER BY id")
	if err != nil {
		return err
	}

	var ids []int64
	for rows.Next() {
		var id int64
		var l ListBackup
		if err := rows.Scan(&id, &l.PlayerID, &l.Name, &l.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
		backup.Lists = append(backup.Lists, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, id := range ids {
		pairRows, err := s.db.Query("SELECT english, chinese FROM word_pairs WHERE list_id = ? ORDER BY position", id)
		if err != nil {
			return err
		}
		for pairRows.Next() {
			var p models.WordPair
			if err := pairRows.Scan(&p.English, &p.Chinese); err != nil {
				pairRows.Close()
				return err
			}
			backup.Lists[i].Pairs = append(backup.Lists[i].Pairs, p)
		}
		pairRows.Close()
	}
	return nil
}

func importMistakes(tx *database.Tx, mistakes []MistakeBackup) error {
	log.Debug().Int("count", len(mistakes)).Msg("Importing mistakes")
	for _, m := range mistakes {
		if _, err := tx.Exec("DELETE FROM mistakes WHERE player_id = ? AND word = ?", m.PlayerID, m.Word); err != nil {
			return err
		}
		query := "INSERT INTO mistakes (player_id, word, count, updated_at) VALUES (?, ?, ?, ?)"
		if _, err := tx.Exec(query, m.PlayerID, m.Word, m.Count, m.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import mistake %s/%s: %w", m.PlayerID, m.Word, err)
		}
	}
	return nil
}

func importStats(tx *database.Tx, stats []StatsBackup) error {
	log.Debug().Int("count", len(stats)).Msg("Importing stats")
	for _, st := range stats {
		if _, err := tx.Exec("DELETE FROM game_stats WHERE player_id = ?", st.PlayerID); err != nil {
			return err
		}
		var lastPlayed interface{}
		if st.LastPlayedAt != nil {
			lastPlayed = *st.LastPlayedAt
		}
		query := `INSERT INTO game_stats (player_id, games_started, games_completed, time_ups, best_score,
			total_score, total_matches, total_mistakes, last_played_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.Exec(query, st.PlayerID, st.GamesStarted, st.GamesCompleted, st.TimeUps, st.BestScore,
			st.TotalScore, st.TotalMatches, st.TotalMistakes, lastPlayed); err != nil {
			return fmt.Errorf("failed to import stats for %s: %w", st.PlayerID, err)
		}
	}
	return nil
}

func importSettings(tx *database.Tx, settings []SettingsBackup) error {
	log.Debug().Int("count", len(settings)).Msg("Importing settings")
	now := time.Now()
	for _, st := range settings {
		if _, err := tx.Exec("DELETE FROM player_settings WHERE player_id = ?", st.PlayerID); err != nil {
			return err
		}
		query := "INSERT INTO player_settings (player_id, mode, difficulty, sound_enabled, updated_at) VALUES (?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, st.PlayerID, st.Mode, st.Difficulty, st.SoundEnabled, now); err != nil {
			return fmt.Errorf("failed to import settings for %s: %w", st.PlayerID, err)
		}
	}
	return nil
}

func importProgress(tx *database.Tx, progress []ProgressBackup) error {
	log.Debug().Int("count", len(progress)).Msg("Importing progress")
	for _, p := range progress {
		if _, err := tx.Exec("DELETE FROM game_progress WHERE player_id = ?", p.PlayerID); err != nil {
			return err
		}
		query := "INSERT INTO game_progress (player_id, snapshot, updated_at) VALUES (?, ?, ?)"
		if _, err := tx.Exec(query, p.PlayerID, string(p.Snapshot), p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import progress for %s: %w", p.PlayerID, err)
		}
	}
	return nil
}

func importLists(tx *database.Tx, lists []ListBackup) error {
	log.Debug().Int("count", len(lists)).Msg("Importing word lists")
	for _, l := range lists {
		listID, err := tx.ExecReturningID("INSERT INTO word_lists (player_id, name, created_at) VALUES (?, ?, ?)",
			l.PlayerID, l.Name, l.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import list %q: %w", l.Name, err)
		}
		for i, p := range l.Pairs {
			query := "INSERT INTO word_pairs (list_id, english, chinese, position) VALUES (?, ?, ?, ?)"
			if _, err := tx.Exec(query, listID, p.English, p.Chinese, i); err != nil {
				return fmt.Errorf("failed to import pair %q of list %q: %w", p.English, l.Name, err)
			}
		}
	}
	return nil
}
