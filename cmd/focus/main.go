package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"studytracker/internal/app"
	"studytracker/internal/config"
	"studytracker/internal/logging"
	"studytracker/internal/tui"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// The terminal belongs to the UI, so logs go to LOG_FILE or nowhere.
	logger, closer := logging.Discard(), io.Closer(io.NopCloser(nil))
	if cfg.LogFile != "" {
		var err error
		logger, closer, err = logging.Open(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
	}
	defer closer.Close()

	application, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}

	program := tea.NewProgram(tui.New(application.Service), tea.WithAltScreen())
	_, runErr := program.Run()

	if err := application.Close(); err != nil {
		logger.Error("shutdown", "err", err)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "focus:", runErr)
		os.Exit(1)
	}
}
