package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluewave/stocksim/internal/clients/yahoo"
	"github.com/bluewave/stocksim/internal/config"
	"github.com/bluewave/stocksim/internal/database"
	"github.com/bluewave/stocksim/internal/events"
	"github.com/bluewave/stocksim/internal/modules/analysis"
	"github.com/bluewave/stocksim/internal/modules/history"
	historyjobs "github.com/bluewave/stocksim/internal/modules/history/jobs"
	"github.com/bluewave/stocksim/internal/modules/signals"
	"github.com/bluewave/stocksim/internal/modules/simulation"
	"github.com/bluewave/stocksim/internal/modules/watchlist"
	"github.com/bluewave/stocksim/internal/scheduler"
	"github.com/bluewave/stocksim/internal/server"
	"github.com/bluewave/stocksim/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting stocksim")

	if err := cfg.EnsureDirs(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directories")
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Shared services
	eventManager := events.NewManager(log)

	yahooClient := yahoo.NewClient(log)
	historyStore := history.NewStore(cfg.HistoryDir, log)
	priceProvider := history.NewProvider(historyStore, yahooClient, log)

	watchlistRepo := watchlist.NewRepository(db.Conn(), log)
	paramsRepo := simulation.NewParametersRepository(db.Conn(), log)
	classifier := signals.NewClassifier(log)

	analysisService := analysis.NewService(priceProvider, watchlistRepo, paramsRepo, classifier, log)

	// Handlers
	watchlistHandler := watchlist.NewHandler(watchlistRepo, eventManager, log)
	analysisHandler := analysis.NewHandler(analysisService, log)
	simulationHandler := simulation.NewHandler(paramsRepo, priceProvider, watchlistRepo, eventManager, log)

	// Scheduler and background jobs
	sched := scheduler.New(log)
	priceSyncJob := historyjobs.NewPriceSyncJob(priceProvider, watchlistRepo, eventManager, log)
	if err := sched.AddJob(cfg.PriceSyncSchedule, priceSyncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price sync job")
	}
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:              cfg.Port,
		Log:               log,
		Config:            cfg,
		DevMode:           cfg.DevMode,
		WatchlistHandler:  watchlistHandler,
		AnalysisHandler:   analysisHandler,
		SimulationHandler: simulationHandler,
		PriceSyncJob:      priceSyncJob,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
