package game

import "errors"

var (
	ErrNoWords           = errors.New("word list has no valid pairs")
	ErrUnknownCard       = errors.New("unknown card")
	ErrWrongMode         = errors.New("action not available in the current input mode")
	ErrRoundOver         = errors.New("round is over")
	ErrInvalidMode       = errors.New("invalid mode")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrSessionClosed     = errors.New("session closed")
)
