package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/internal/config"
	"github.com/goliatone/go-formdesk/internal/logging"
	"github.com/goliatone/go-formdesk/internal/mockapi"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

func main() {
	configPath := flag.String("config", "", "config file (config.yaml in the working directory if empty)")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment is read")
	addr := flag.String("addr", "", "listen address (mock.addr if empty)")
	formsDir := flag.String("forms", "", "directory of YAML/JSON form catalogs replacing the built-in forms")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	opts := []mockapi.Option{
		mockapi.WithToken(cfg.Mock.Token),
		mockapi.WithLatency(cfg.Mock.Latency),
		mockapi.WithLogger(logger),
	}
	if *formsDir != "" {
		catalog, err := schema.LoadFS(os.DirFS(*formsDir))
		if err != nil {
			log.Fatalf("load forms: %v", err)
		}
		opts = append(opts, mockapi.WithCatalog(catalog))
	}

	srv, err := mockapi.New(opts...)
	if err != nil {
		log.Fatalf("mock server: %v", err)
	}

	listen := cfg.Mock.Addr
	if *addr != "" {
		listen = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, listen); err != nil {
		logger.Fatal("mock server stopped", zap.Error(err))
	}
}
