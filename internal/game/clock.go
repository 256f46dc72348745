package game

import (
	"math/rand/v2"
	"time"
)

// Timer is a pending callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock time and delayed callbacks for deterministic testing.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine after d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// stdRNG delegates to math/rand/v2 (auto-seeded).
type stdRNG struct{}

// DefaultRNG returns the process-wide random source
func DefaultRNG() RNG { return stdRNG{} }

func (stdRNG) Intn(n int) int { return rand.IntN(n) }
