package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("ROUND_SIZE", "")
	t.Setenv("ERROR_FLASH", "")
	t.Setenv("MISMATCH_PENALTY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RoundSize != 10 {
		t.Errorf("RoundSize = %d, want 10", cfg.RoundSize)
	}
	if cfg.MismatchPenalty != 0 {
		t.Errorf("MismatchPenalty = %d, want 0", cfg.MismatchPenalty)
	}
	if cfg.ErrorFlash != time.Second {
		t.Errorf("ErrorFlash = %v, want 1s", cfg.ErrorFlash)
	}
	if cfg.RestartDelay != 3*time.Second {
		t.Errorf("RestartDelay = %v, want 3s", cfg.RestartDelay)
	}
	if cfg.TimerInterval != 100*time.Millisecond {
		t.Errorf("TimerInterval = %v, want 100ms", cfg.TimerInterval)
	}
	if cfg.TokenSecret == "" {
		t.Error("TokenSecret should fall back to a development secret")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "round size not a number", key: "ROUND_SIZE", value: "ten"},
		{name: "round size zero", key: "ROUND_SIZE", value: "0"},
		{name: "bad duration", key: "ERROR_FLASH", value: "soon"},
		{name: "negative penalty", key: "MISMATCH_PENALTY", value: "-2"},
		{name: "bad bool", key: "AUDIO_ENABLED", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestLoadRequiresURLForServerDatabases(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without DATABASE_URL for postgres")
	}
}

func TestLoadMismatchPenalty(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("MISMATCH_PENALTY", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MismatchPenalty != 3 {
		t.Errorf("MismatchPenalty = %d, want 3", cfg.MismatchPenalty)
	}
}
