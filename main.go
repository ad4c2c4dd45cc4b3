package main

import (
	"flag"
	"log"
	"map_survey_backend/internal/app"
	"map_survey_backend/internal/config"
	"map_survey_backend/pkg/configwatcher"
	"map_survey_backend/pkg/logger"
	"path/filepath"

	"go.uber.org/zap"
)

// @title Map Survey API
// @version 1.0
// @description Crowd-annotation backend for map comprehension surveys: question serving, response collection, automated grading and adjudication.
// @BasePath /
func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	application, err := app.NewApp(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	go configwatcher.WatchConfig(filepath.Join(*configDir, "config.yaml"), application.OnConfigReload)

	if err := application.Run(); err != nil {
		logger.Log.Fatal("Server error", zap.Error(err))
	}
}
