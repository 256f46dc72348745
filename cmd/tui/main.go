package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/config"
	"wordmatch/internal/database"
	"wordmatch/internal/game"
	"wordmatch/internal/repository"
	"wordmatch/internal/service"
	"wordmatch/internal/tui"
)

func main() {
	playerID := flag.String("player", "local", "Player id whose progress is loaded and saved")
	logPath := flag.String("log", "", "Write logs to this file (default: no logs)")
	flag.Parse()

	_ = godotenv.Load()

	// the terminal belongs to the board, so logs go to a file or nowhere
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *logPath != "" {
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	difficulty, err := game.ParseDifficulty(cfg.DefaultDifficulty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid default difficulty: %v\n", err)
		os.Exit(1)
	}
	gameCfg := service.RulesFromConfig(cfg)

	games := service.NewGameService(gameCfg, difficulty, service.GameRepositories{
		Mistakes: repository.NewMistakeRepository(db),
		Stats:    repository.NewStatsRepository(db),
		Progress: repository.NewProgressRepository(db),
		Settings: repository.NewSettingsRepository(db),
		Lists:    repository.NewWordListRepository(db),
	}, nil, nil)
	defer games.Shutdown()

	g, err := tui.NewServiceGame(games, *playerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load game: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(tui.New(g), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}
