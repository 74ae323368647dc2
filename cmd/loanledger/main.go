package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"loanledger/internal/config"
	"loanledger/internal/ledger"
	"loanledger/internal/server"
	"loanledger/internal/store"
	"loanledger/internal/sweep"
	"loanledger/pkg/caldate"
	"loanledger/pkg/constants"
	"loanledger/pkg/output"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serveFlag := flag.Bool("serve", false, "run the HTTP API server regardless of the config setting")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over the config file.
	if *outputFormatFlag != "" {
		conf.Output.Format = *outputFormatFlag
	}
	if *serveFlag {
		conf.Server.Enabled = true
	}

	warnings, err := conf.ValidateConfiguration()
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	st, err := store.Open(conf.Storage)
	if err != nil {
		logger.Fatal("failed to open storage backend",
			zap.String("op", "main"),
			zap.String("backend", conf.Storage.Backend),
			zap.Error(err),
		)
	}
	defer func() {
		_ = st.Close()
	}()

	l, err := ledger.New(context.Background(), st, logger, caldate.Today)
	if err != nil {
		logger.Fatal("failed to load the loan book",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if conf.Server.Enabled {
		runServer(conf, l, logger)
		return
	}

	// Without the server we print the loan book and exit.
	switch conf.Output.Format {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, l.Loans(), l.Totals(), l.Today())
	case constants.OutputFormatCSV:
		output.CsvFormat(os.Stdout, l.Loans(), l.Today())
	}
}

func runServer(conf *config.Configuration, l *ledger.Ledger, logger *zap.Logger) {
	if conf.Sweep.Enabled {
		sweeper := sweep.New(l, logger, conf.Sweep.HorizonDays)
		if err := sweeper.Start(conf.Sweep.Schedule); err != nil {
			logger.Fatal("failed to start delinquency sweep",
				zap.String("op", "main"),
				zap.String("schedule", conf.Sweep.Schedule),
				zap.Error(err),
			)
		}
		defer sweeper.Stop()
	}

	srv := server.New(conf.Server.Address, l, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening",
			zap.String("op", "main"),
			zap.String("address", conf.Server.Address),
		)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("HTTP server stopped",
			zap.String("op", "main"),
			zap.Error(err),
		)
	case sig := <-sigCh:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("graceful shutdown failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
