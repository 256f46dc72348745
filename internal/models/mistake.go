package models

import (
	"sort"
	"time"
)

// MistakeEntry is one row of a player's mistake ledger
type MistakeEntry struct {
	Word      string    `json:"word"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SortMistakes orders entries by count descending, then word ascending
func SortMistakes(entries []MistakeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Word < entries[j].Word
	})
}
