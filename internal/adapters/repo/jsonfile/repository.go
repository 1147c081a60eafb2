package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/keeperbot/monzoo-keeper/internal/ports"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	configDir       = ".monzoo-keeper"
	statePathKey    = "state.path"
	settingsPathKey = "settings.path"
	stateFileName   = "run-state.json"
	settingsFile    = "settings.json"
	documentMode    = 0o600
	directoryMode   = 0o700
	tempPattern     = ".document-*.json.tmp"
)

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// RunStateRepository stores the scheduling document as a single JSON file,
// replaced atomically on every write. Absent or corrupt documents load as
// an empty state rather than an error.
type RunStateRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.RunStateRepository = (*RunStateRepository)(nil)

func NewRunStateRepository(cfg *viper.Viper) (*RunStateRepository, error) {
	path, err := resolvePath(cfg, statePathKey, stateFileName)
	if err != nil {
		return nil, err
	}
	return NewRunStateRepositoryAt(path), nil
}

func NewRunStateRepositoryAt(path string) *RunStateRepository {
	path = filepath.Clean(path)
	return &RunStateRepository{path: path, mu: lockForPath(path)}
}

func (r *RunStateRepository) Load(ctx context.Context) (domain.RunState, error) {
	if err := ctx.Err(); err != nil {
		return domain.RunState{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var schema runStateSchema
	ok, err := readDocument(r.path, &schema)
	if err != nil {
		return domain.RunState{}, fmt.Errorf("read run state: %w", err)
	}
	if !ok {
		return domain.NewRunState(), nil
	}

	return fromRunStateSchema(schema), nil
}

func (r *RunStateRepository) Save(ctx context.Context, state domain.RunState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeDocument(r.path, toRunStateSchema(state)); err != nil {
		return fmt.Errorf("write run state: %w", err)
	}

	return nil
}

// SettingsRepository stores the operator settings document. Missing keys in
// the file keep their defaults, so partial documents stay valid.
type SettingsRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(cfg *viper.Viper) (*SettingsRepository, error) {
	path, err := resolvePath(cfg, settingsPathKey, settingsFile)
	if err != nil {
		return nil, err
	}
	return NewSettingsRepositoryAt(path), nil
}

func NewSettingsRepositoryAt(path string) *SettingsRepository {
	path = filepath.Clean(path)
	return &SettingsRepository{path: path, mu: lockForPath(path)}
}

func (r *SettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	schema := toSettingsSchema(domain.DefaultSettings())
	ok, err := readDocument(r.path, &schema)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if !ok {
		return domain.DefaultSettings(), nil
	}

	return fromSettingsSchema(schema), nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeDocument(r.path, toSettingsSchema(settings.Normalized())); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// resolvePath reads the optional config file and falls back to the default
// document location under the home directory.
func resolvePath(cfg *viper.Viper, key, fileName string) (string, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(key, filepath.Join(homeDir, configDir, fileName))

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return "", fmt.Errorf("read config file: %w", err)
		}
	}

	path := cfg.GetString(key)
	if path == "" {
		return "", fmt.Errorf("config key %q resolves to an empty path", key)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve document path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// readDocument reports ok=false when the file is absent or not valid JSON;
// the caller substitutes defaults in both cases.
func readDocument(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}

	return true, nil
}

func writeDocument(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), directoryMode); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp document: %w", err)
	}

	if err := tempFile.Chmod(documentMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp document: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp document: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}

	cleanup = false
	return nil
}
