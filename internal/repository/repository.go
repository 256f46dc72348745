package repository

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a player has no stored row
var ErrNotFound = errors.New("not found")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
