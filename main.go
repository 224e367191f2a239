// main.go
package main

import (
	"context"
	"log"

	"railway-booking/cmd"
	"railway-booking/internal/data/repository"
	"railway-booking/internal/queue"
	"railway-booking/internal/wire"
	"railway-booking/pkg/database"
	"railway-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Redis backs the booking rate limiter; optional
	var rdb *redis.Client
	if config.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiting will pass through", zap.Error(err))
		}
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Order lifecycle events, best-effort
	events := queue.NewPublisher(config.Broker, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, events, rdb, config, logger)

	// Payment-hold reaper runs until shutdown
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go app.Service.Reaper.Start(reaperCtx)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
