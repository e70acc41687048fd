package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"talky/internal/types"
)

// Settings is the loaded settings snapshot. The settings file owns the
// environment list and the default environment id; consumers resolve an
// effective environment from it but never mutate it.
type Settings struct {
	ModelEnvironments    []types.ModelEnvironment `toml:"model_environments"`
	DefaultEnvironmentID string                   `toml:"default_environment_id"`
	Logging              LoggingSettings          `toml:"logging"`
	UI                   UISettings               `toml:"ui"`
}

type LoggingSettings struct {
	Level string `toml:"level"`
}

type UISettings struct {
	Keybindings UIKeybindingsSettings `toml:"keybindings"`
}

type UIKeybindingsSettings struct {
	Path string `toml:"path"`
}

func DefaultSettings() Settings {
	return Settings{
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

func LoadSettings() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return Settings{}, err
	}
	return loadSettingsFromPath(path)
}

func (s Settings) LogLevel() string {
	level := strings.TrimSpace(s.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

// Environments returns the configured environment list with blank entries
// dropped. Order is preserved; the first entry is the resolver's final
// fallback.
func (s Settings) Environments() []types.ModelEnvironment {
	out := make([]types.ModelEnvironment, 0, len(s.ModelEnvironments))
	for _, env := range s.ModelEnvironments {
		if strings.TrimSpace(env.ID) == "" {
			continue
		}
		out = append(out, env)
	}
	return out
}

func (s Settings) ResolveKeybindingsPath() (string, error) {
	defaultPath, err := KeybindingsPath()
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(s.UI.Keybindings.Path)
	if path == "" {
		return defaultPath, nil
	}
	return resolveSettingsPath(path)
}

func loadSettingsFromPath(path string) (Settings, error) {
	cfg := DefaultSettings()
	if err := readTOML(path, &cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveSettingsPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
