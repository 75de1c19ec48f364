package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/core"
	"github.com/0xRadioAc7iv/go-jewelstore/internal"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/utils"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	flags := utils.HandleCLIInputs()

	cfg, err := internal.LoadConfig(flags.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	applyFlags(cfg, flags)

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.Development, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine := core.NewEngine(cfg, logger)
	if err := engine.Start(); err != nil {
		logger.Fatal("error while starting", zap.Error(err))
	}
	defer engine.Stop()

	utils.ListenForProcessInterruptOrKill(logger)
}

func applyFlags(cfg *internal.Config, f *utils.ServerFlags) {
	if f.Dir != "" {
		cfg.DataDir = f.Dir
	}
	if f.Port != 0 {
		cfg.Port = f.Port
	}
	if f.HTTPPort != 0 {
		cfg.HTTPPort = f.HTTPPort
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
}
