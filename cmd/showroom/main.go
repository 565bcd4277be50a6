// Package main is the entry point for the showroom viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/viewer"
)

var (
	flagDump       = flag.Bool("dump", false, "Print the decoded car model and exit")
	flagSaveConfig = flag.Bool("save-config", false, "Write the effective configuration and exit")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *flagSaveConfig {
		if err := cfg.Save(); err != nil {
			logger.Error("saving config failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("path", config.Path()))
		return
	}

	if *flagDump {
		if err := dump(context.Background(), cfg, os.Stdout); err != nil {
			logger.Error("dump failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	logger.Info("=== Showroom ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
