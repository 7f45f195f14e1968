package main

import (
	"github.com/niklvrr/dotbounty/internal/config"
	"github.com/niklvrr/dotbounty/pkg/logger"
	"go.uber.org/zap"
)

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLogger(cfg.Log.Level, logger.FileConfig{Path: cfg.Log.File})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
