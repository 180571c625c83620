package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"SchedChat/internal/chatbot"
	"SchedChat/internal/config"
)

func main() {
	var (
		configPath string
		baseURL    string
		sessionID  string
		debug      bool
		logDir     string
		dbPath     string
		timeout    time.Duration
		telemetry  bool
	)

	flag.StringVar(&configPath, "config", "", "Path to a TOML config file")
	flag.StringVar(&baseURL, "base-url", config.DefaultBaseURL, "Scheduling assistant server URL")
	flag.StringVar(&sessionID, "session-id", "", "Resume a stored session by ID")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&logDir, "log-dir", config.DefaultLogDir, "Directory for logs, traces and metrics")
	flag.StringVar(&dbPath, "db", config.DefaultDBPath, "SQLite transcript database")
	flag.DurationVar(&timeout, "timeout", 0, "Backend request timeout (0 waits indefinitely)")
	flag.BoolVar(&telemetry, "telemetry", false, "Export traces and metrics to the log directory")

	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = baseURL
		case "debug":
			cfg.Debug = debug
		case "log-dir":
			cfg.LogDir = logDir
		case "db":
			cfg.DBPath = dbPath
		case "timeout":
			cfg.RequestTimeout = timeout
		case "telemetry":
			cfg.Telemetry = telemetry
		}
	})
	cfg.SessionID = sessionID

	bot, err := chatbot.NewChatBot(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize chatbot: %v\n", err)
		os.Exit(1)
	}

	if err := bot.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
