// cmd/tidemark/main.go
package main

import (
	"flag"
	"fmt"
	stlog "log" // Use standard log for FATAL errors before logger is ready
	"os"
	"path/filepath"

	"github.com/bethropolis/tidemark/internal/app"
	"github.com/bethropolis/tidemark/internal/config"
	"github.com/bethropolis/tidemark/internal/logger"
)

var version = "dev"

func main() {
	// --- Argument & Flag Parsing ---
	var flags config.Flags
	fs := flag.NewFlagSet(config.AppName, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [note]\n", config.AppName)
		fs.PrintDefaults()
	}
	args, err := flags.ParseFlags(fs, os.Args[1:])
	if err != nil {
		stlog.Fatalf("Failed to parse flags: %v", err)
	}
	if *flags.Version {
		fmt.Printf("%s %s\n", config.AppName, version)
		return
	}
	noteID := ""
	if len(args) > 0 {
		noteID = args[0]
	}

	cfg, loadErr := config.Load(*flags.ConfigFilePath, &flags)

	// --- Logger Initialization ---
	// The terminal owns stderr while the editor runs, so default to a file.
	logPath := cfg.Logger.LogFilePath
	if logPath == "" {
		logPath = config.DefaultLogPath()
		if logPath != "" {
			if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
				stlog.Fatalf("Failed to create log directory: %v", err)
			}
		}
	}
	out, closeLog, err := logger.OpenOutput(logPath)
	if err != nil {
		stlog.Fatalf("%v", err)
	}
	defer closeLog()
	logger.Init(cfg.Logger, out)

	logger.Infof("Starting %s %s...", config.AppName, version)
	if loadErr != nil {
		logger.Warnf("Using default configuration: %v", loadErr)
	}
	if noteID != "" {
		logger.Debugf("Note specified: %s", noteID)
	}

	// --- Create and Run App ---
	tidemarkApp, err := app.NewApp(app.Options{Config: cfg, NoteID: noteID})
	if err != nil {
		logger.Errorf("Error initializing application: %v", err)
		closeLog()
		os.Exit(1)
	}

	if err := tidemarkApp.Run(); err != nil {
		logger.Errorf("Application exited with error: %v", err)
		closeLog()
		os.Exit(1)
	}

	logger.Infof("%s finished.", config.AppName)
}
