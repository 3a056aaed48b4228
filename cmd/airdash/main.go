package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/manishw7/air-quality-intelligence/internal/api"
	"github.com/manishw7/air-quality-intelligence/internal/app"
	"github.com/manishw7/air-quality-intelligence/internal/config"
	"github.com/manishw7/air-quality-intelligence/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to the airdash config file (default ./airdash.yaml)")
	flag.Parse()

	cfg, err := loadStartupConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "airdash:", err)
		os.Exit(1)
	}

	logger := app.NewLogger()
	client := api.NewClient(cfg.Service.BaseURL, time.Duration(cfg.Service.RequestTimeout), logger)
	store, err := storage.NewStore(cfg.Snapshots.Dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "airdash:", err)
		os.Exit(1)
	}

	program := tea.NewProgram(app.NewModel(client, store, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "airdash:", err)
		os.Exit(1)
	}
}

func loadStartupConfig(explicit string) (config.Config, error) {
	path, err := config.ResolvePath(explicit)
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}
