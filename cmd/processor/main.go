package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"uberfares/internal/config"
	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (defaults to config.yaml or FARES_CONFIG_FILE)")
	inFile := flag.String("in", "", "input trips CSV (overrides paths.input_file)")
	outDir := flag.String("out", "", "output directory (overrides paths.output_dir)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inFile != "" {
		cfg.Paths.InputFile = *inFile
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
