package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/menta2k/skin-analyzer/internal/app"
	"github.com/menta2k/skin-analyzer/internal/config"
	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/internal/server"
	"github.com/menta2k/skin-analyzer/internal/utils"
)

func main() {
	var configPath, envFile string
	var port int
	flag.StringVar(&configPath, "config", "", "YAML config file (default ~/.config/skin-analyzer/config.yaml when present)")
	flag.StringVar(&envFile, "env", ".env", "dotenv file with SKIN_* variables; missing files are ignored")
	flag.IntVar(&port, "port", 0, "listen port (overrides config)")
	flag.Parse()

	log := logging.Component("main")

	if utils.FileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			log.WithError(err).Fatal("failed to load env file")
		}
	}

	if configPath == "" && utils.FileExists(config.GetConfigPath()) {
		configPath = config.GetConfigPath()
	}
	cfg, err := app.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if err := logging.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		log.Fatal(err)
	}
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := app.Build(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	deps := server.Deps{Analyzer: svc.Analyzer, Compositor: svc.Compositor}
	if svc.Beauty != nil {
		deps.Beauty = svc.Beauty
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg.Server, deps).Run(ctx); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
	log.Info("server stopped")
}
