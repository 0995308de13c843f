package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"messagewall/internal/app"
	"messagewall/pkg/config"
	"messagewall/pkg/logger"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	eff, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// explicit flags win over env and file
	if setFlags["addr"] {
		eff.Addr = addrVal
		eff.Source = "flags"
	}
	if setFlags["db"] {
		eff.DBPath = dbVal
		eff.Config.Storage.DBPath = dbVal
		eff.Source = "flags"
	}

	logger.Init(eff.Config.Logging.Level)

	verStr := version
	if commit != "none" {
		verStr += " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr += " @ " + buildDate
	}

	a, err := app.New(eff, verStr)
	if err != nil {
		logger.Error("startup_failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("server_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server_stopped")
}
