package main

import (
	"github.com/joho/godotenv"
	"github.com/samasyax/samasyax/db"
	"github.com/samasyax/samasyax/internal/auth"
	"github.com/samasyax/samasyax/internal/config"
	"github.com/samasyax/samasyax/internal/handlers"
	"github.com/samasyax/samasyax/internal/logger"
	"github.com/samasyax/samasyax/internal/router"
	"github.com/samasyax/samasyax/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, using process environment")
	}

	cfg, err := config.Load()

	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}

	logger.Init(cfg.Env)
	auth.SetSecret(cfg.JWTSecret)

	store, err := storage.NewImageStore(cfg.UploadsDir)

	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to prepare uploads directory")
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.MigrateDatabase(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate database")
	}

	handlers.Configure(cfg, store)

	r := router.NewRouter(cfg, store)

	logger.Log.WithField("port", cfg.Port).Info("Starting SamasyaX API")

	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.WithError(err).Fatal("Failed to start server")
	}
}
