package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fixroute/backend/internal/classifier"
	"github.com/fixroute/backend/internal/config"
	"github.com/fixroute/backend/internal/db"
	httpapi "github.com/fixroute/backend/internal/http"
	"github.com/fixroute/backend/internal/notify"
	"github.com/fixroute/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "fixroute-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var primary classifier.Classifier
	if cfg.ClassifierURL == "" {
		primary = classifier.MockClassifier{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock classifier")
	} else {
		primary = classifier.HTTPClassifier{
			BaseURL: cfg.ClassifierURL,
			APIKey:  cfg.ClassifierAPIKey,
			Timeout: cfg.ClassifierTimeout,
		}
	}
	clf := classifier.WithFallback{Primary: primary, Logger: logger}

	weights := service.ScoreWeights{
		Specialty:     cfg.ScoreSpecialty,
		RatingMax:     cfg.ScoreRatingMax,
		Preferred:     cfg.ScorePreferred,
		ExperienceMax: cfg.ScoreExperienceMax,
		Availability:  cfg.ScoreAvailability,
	}

	dispatcher := notify.LogDispatcher{Logger: logger}
	router := httpapi.Router(cfg, store, clf, dispatcher, weights, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
