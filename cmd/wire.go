package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/adapters/events"
	statusadapter "github.com/keeperbot/monzoo-keeper/internal/adapters/render/status"
	"github.com/keeperbot/monzoo-keeper/internal/adapters/repo/jsonfile"
	chainstore "github.com/keeperbot/monzoo-keeper/internal/adapters/secrets/chain"
	"github.com/keeperbot/monzoo-keeper/internal/adapters/site"
	"github.com/keeperbot/monzoo-keeper/internal/application"
	"github.com/keeperbot/monzoo-keeper/internal/ports"
	"github.com/spf13/viper"
)

type app struct {
	scheduler    *application.Scheduler
	stateRepo    ports.RunStateRepository
	settingsRepo ports.SettingsRepository
	secretStore  ports.SecretStore
	recorder     *events.Recorder
	renderer     func(statusadapter.View) (string, error)
	now          func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	stateRepo, err := jsonfile.NewRunStateRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire run state repository: %w", err)
	}

	settingsRepo, err := jsonfile.NewSettingsRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire settings repository: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, ".monzoo-keeper", "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	recorder := events.NewRecorder(
		events.DefaultCap,
		ports.SystemClock{},
		filepath.Join(homeDir, ".monzoo-keeper", "logs", "last-run.json"),
	)
	sink := events.NewTee(recorder, events.NewWriter(os.Stderr))

	delayMin, err := durationOrDefault("MZK_DELAY_MIN", 2*time.Second)
	if err != nil {
		return nil, err
	}
	delayMax, err := durationOrDefault("MZK_DELAY_MAX", 5*time.Second)
	if err != nil {
		return nil, err
	}

	runner := site.NewOrchestrator(
		envOrDefault("MZK_BASE_URL", "https://monzoo.net"),
		site.NewPacer(delayMin, delayMax),
		sink,
	)

	return &app{
		scheduler:    application.NewScheduler(stateRepo, settingsRepo, secretStore, runner, ports.SystemClock{}, sink, recorder),
		stateRepo:    stateRepo,
		settingsRepo: settingsRepo,
		secretStore:  secretStore,
		recorder:     recorder,
		renderer:     statusadapter.Render,
		now:          time.Now,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return parsed, nil
}
