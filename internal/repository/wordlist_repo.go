package repository

import (
	"time"

	"wordmatch/internal/database"
	"wordmatch/internal/models"
)

// WordListRepository stores imported word lists. A player's newest list is
// the one they play with.
type WordListRepository struct {
	db *database.DB
}

// NewWordListRepository creates a new word list repository
func NewWordListRepository(db *database.DB) *WordListRepository {
	return &WordListRepository{db: db}
}

// Create stores a list and its pairs in one transaction
func (r *WordListRepository) Create(playerID, name string, pairs []models.WordPair) (*models.WordList, error) {
	list := &models.WordList{
		PlayerID:  playerID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Pairs:     pairs,
	}

	err := r.db.WithTx(func(tx *database.Tx) error {
		id, err := tx.ExecReturningID(
			`INSERT INTO word_lists (player_id, name, created_at) VALUES (?, ?, ?)`,
			playerID, name, list.CreatedAt)
		if err != nil {
			return err
		}
		list.ID = id

		for i, p := range pairs {
			_, err := tx.Exec(
				`INSERT INTO word_pairs (list_id, english, chinese, position) VALUES (?, ?, ?, ?)`,
				id, p.English, p.Chinese, i)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Latest returns the player's newest list with its pairs, or ErrNotFound
func (r *WordListRepository) Latest(playerID string) (*models.WordList, error) {
	query := `
		SELECT id, player_id, name, created_at
		FROM word_lists
		WHERE player_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	list := &models.WordList{}
	err := r.db.QueryRow(query, playerID).Scan(&list.ID, &list.PlayerID, &list.Name, &list.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	list.Pairs, err = r.pairs(list.ID)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// List returns the player's lists, newest first, without their pairs
func (r *WordListRepository) List(playerID string) ([]models.WordList, error) {
	query := `
		SELECT id, player_id, name, created_at
		FROM word_lists
		WHERE player_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []models.WordList{}
	for rows.Next() {
		var l models.WordList
		if err := rows.Scan(&l.ID, &l.PlayerID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// DeleteAll removes every list of a player, returning them to the default words
func (r *WordListRepository) DeleteAll(playerID string) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		_, err := tx.Exec(`DELETE FROM word_pairs WHERE list_id IN (SELECT id FROM word_lists WHERE player_id = ?)`, playerID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`DELETE FROM word_lists WHERE player_id = ?`, playerID)
		return err
	})
}

func (r *WordListRepository) pairs(listID int64) ([]models.WordPair, error) {
	rows, err := r.db.Query(`SELECT english, chinese FROM word_pairs WHERE list_id = ? ORDER BY position`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []models.WordPair
	for rows.Next() {
		var p models.WordPair
		if err := rows.Scan(&p.English, &p.Chinese); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
