package main

import (
	"context"
	"log"
	"net/http"

	"gopower/adapters/excel"
	"gopower/adapters/postgres"
	"gopower/adapters/rng"
	"gopower/app"
	"gopower/internal"
	"gopower/internal/api"
	"gopower/internal/config"
	"gopower/internal/errors"
	"gopower/internal/migration"
	"gopower/internal/sim"
	"gopower/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects the optional run archive. An empty DATABASE_URL
// disables it entirely.
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, nil
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger := internal.NewDefaultLogger()

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	var repo ports.RunRepositoryPort
	if db != nil {
		defer db.Close()
		repo = postgres.NewRunRepository(db)
		logger.Info("run archive enabled")
	} else {
		logger.Info("run archive disabled (DATABASE_URL not set)")
	}

	rngAdapter := rng.NewAdapter()
	runner := sim.NewRunner(rngAdapter, appConfig.Simulation.Workers, logger)
	exporter := excel.NewWriter(appConfig.Export.Dir)
	service := app.NewPowerService(runner, rngAdapter, repo, exporter, logger)

	server := api.NewServer(service, logger)
	addr := ":" + appConfig.Server.Port
	logger.Info("power simulation API listening on %s (%d workers)", addr, appConfig.Simulation.Workers)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
