package models

import (
	"strings"
	"time"
)

// WordPair is an English word and its Chinese translation
type WordPair struct {
	English string `json:"english"`
	Chinese string `json:"chinese"`
}

// Valid reports whether both sides of the pair are present
func (p WordPair) Valid() bool {
	return strings.TrimSpace(p.English) != "" && strings.TrimSpace(p.Chinese) != ""
}

// WordList is an imported list of pairs owned by a player
type WordList struct {
	ID        int64
	PlayerID  string
	Name      string
	CreatedAt time.Time
	Pairs     []WordPair
}
