package backend

import (
	"fmt"

	"payoff/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		Preferences:  PreferencesType(appConfig.PreferencesBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		SeedDir:      appConfig.SeedDir,
		RedisAddr:    appConfig.RedisAddr,
		RedisDB:      appConfig.RedisDB,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Preferences == "" {
		c.Preferences = SamePreferences
	}
	if !c.Preferences.IsValid() {
		return fmt.Errorf("invalid preferences backend: %s", c.Preferences)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.Preferences == RedisPreferences && c.RedisAddr == "" {
		return fmt.Errorf("Redis address is required for redis preferences")
	}
	return nil
}

func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
