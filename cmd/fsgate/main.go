package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"fsgate/internal/config"
	"fsgate/internal/logger"
	"fsgate/internal/security"
	"fsgate/internal/server"
	"fsgate/internal/source"
	"fsgate/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetShort())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)

	root, err := security.NewRoot(cfg.RootDir)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("dir", cfg.RootDir).Msg("Failed to open root directory")
	}

	var store source.Store
	switch cfg.Source.Type {
	case "s3":
		store, err = source.NewS3(context.Background(), cfg.Source.Bucket, cfg.Source.Region, cfg.Source.Endpoint)
		if err != nil {
			logger.Log.Fatal().Err(err).Str("bucket", cfg.Source.Bucket).Msg("Failed to build S3 store")
		}
	default:
		store = source.NewLocal(root)
	}

	srv := server.New(cfg, root, store)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Log.Info().
		Str("addr", addr).
		Str("root", root.Dir()).
		Str("source", cfg.Source.Type).
		Msg("Starting fsgate")

	if err := srv.Run(addr); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to start server")
	}
}
