package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	predictform "github.com/goliatone/go-predictform"
	"github.com/goliatone/go-predictform/internal/config"
	"github.com/goliatone/go-predictform/internal/devserver"
	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment")
	flag.Parse()

	cfg, err := config.Load(*configPath, config.WithEnvFiles(*envFile))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	gin.SetMode(cfg.Server.GinMode)

	c, err := contract.Default()
	if err != nil {
		log.Fatalf("Failed to load contract: %v", err)
	}

	renderer, err := render.New(
		render.WithTitle(cfg.Page.Title),
		render.WithCurrency(cfg.Page.Currency),
		render.WithWASM(cfg.Page.WASMExec, cfg.Page.WASM),
		render.WithTemplatesDir(cfg.Server.TemplatesDir),
	)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	srv, err := devserver.New(c, newPredictor(cfg.Predictor, logger),
		devserver.WithLogger(logger),
		devserver.WithRenderer(renderer),
		devserver.WithStaticDir(cfg.Server.StaticDir),
		devserver.WithStaticFS(predictform.StaticFS()),
		devserver.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		devserver.WithShutdownGrace(cfg.Server.ShutdownGrace),
		devserver.WithStrictEnums(cfg.Server.StrictEnums),
	)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("predict-server starting",
		"addr", cfg.Server.Addr,
		"predictor", cfg.Predictor.Kind,
		"static_dir", cfg.Server.StaticDir,
	)
	if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("predict-server stopped")
}

func newPredictor(cfg config.PredictorConfig, logger *slog.Logger) devserver.Predictor {
	if cfg.Kind == config.PredictorUpstream {
		client := predict.New(
			predict.WithBaseURL(cfg.UpstreamURL),
			predict.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			predict.WithLogger(logger),
		)
		return devserver.NewUpstreamPredictor(client)
	}
	return devserver.NewStaticPredictor(cfg.StaticPrice)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
