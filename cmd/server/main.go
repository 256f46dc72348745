package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/audio"
	"wordmatch/internal/config"
	"wordmatch/internal/database"
	"wordmatch/internal/game"
	"wordmatch/internal/handlers"
	"wordmatch/internal/render"
	"wordmatch/internal/repository"
	"wordmatch/internal/security"
	"wordmatch/internal/service"
)

const (
	janitorInterval = 5 * time.Minute
	sessionIdle     = 2 * time.Hour
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	setupLogging(cfg)

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", db.Dialect.Name()).Msg("Database connection established")

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Migrations completed successfully")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	repos := service.GameRepositories{
		Mistakes: repository.NewMistakeRepository(db),
		Stats:    repository.NewStatsRepository(db),
		Progress: repository.NewProgressRepository(db),
		Settings: repository.NewSettingsRepository(db),
		Lists:    repository.NewWordListRepository(db),
	}

	var tts *audio.TTSService
	if cfg.AudioEnabled {
		tts = audio.NewTTSService(cfg.AudioPath)
		log.Info().Str("dir", tts.Dir()).Msg("Pronunciation audio enabled")
	}

	difficulty, err := game.ParseDifficulty(cfg.DefaultDifficulty)
	if err != nil {
		log.Fatal().Err(err).Str("difficulty", cfg.DefaultDifficulty).Msg("Invalid default difficulty")
	}

	gameCfg := service.RulesFromConfig(cfg)

	hub := handlers.NewHub()
	games := service.NewGameService(gameCfg, difficulty, repos, tts, hub)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.Debug)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize email service, mistake reports disabled")
		emailService, _ = service.NewEmailService(ctx, "", "", "", cfg.Debug)
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize renderer")
	}

	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	go limiter.Run(ctx)
	go games.RunJanitor(ctx, janitorInterval, sessionIdle)

	h := handlers.Handlers{
		Game:     handlers.NewGameHandler(games, renderer, hub),
		Words:    handlers.NewWordsHandler(games, cfg.UploadMaxSize),
		Mistakes: handlers.NewMistakesHandler(games, emailService),
	}
	if tts != nil {
		h.Audio = handlers.NewAudioHandler(tts)
	}

	mw := handlers.NewMiddleware(cfg.TokenSecret, cfg.TokenDuration)
	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     handlers.NewRouter(mw, limiter, h, cfg.StaticFilesPath),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	games.Shutdown()
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
