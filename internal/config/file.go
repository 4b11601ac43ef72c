package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the TOML layout of CONFIG_FILE. Every key is optional.
type fileConfig struct {
	Server struct {
		Port           string   `toml:"port"`
		TrustedProxies []string `toml:"trusted_proxies"`
	} `toml:"server"`
	Storage struct {
		DataBackend        string `toml:"data_backend"`
		PreferencesBackend string `toml:"preferences_backend"`
		SQLitePath         string `toml:"sqlite_path"`
		SeedDir            string `toml:"seed_dir"`
	} `toml:"storage"`
	Redis struct {
		Addr string `toml:"addr"`
		DB   *int   `toml:"db"`
	} `toml:"redis"`
	AMQP struct {
		URL      string `toml:"url"`
		Exchange string `toml:"exchange"`
		Queue    string `toml:"queue"`
	} `toml:"amqp"`
	Planning struct {
		WriteRetries *int   `toml:"write_retries"`
		CacheSize    *int   `toml:"cache_size"`
		CacheTTL     string `toml:"cache_ttl"`
		DefaultUser  string `toml:"default_user"`
	} `toml:"planning"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// applyFile overlays the settings present in a TOML file onto c.
func applyFile(c *Config, path string) error {
	var f fileConfig
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}

	setString(&c.Port, f.Server.Port)
	if len(f.Server.TrustedProxies) > 0 {
		c.TrustedProxies = f.Server.TrustedProxies
	}
	setString(&c.DataBackend, f.Storage.DataBackend)
	setString(&c.PreferencesBackend, f.Storage.PreferencesBackend)
	setString(&c.SQLiteDBPath, f.Storage.SQLitePath)
	setString(&c.SeedDir, f.Storage.SeedDir)
	setString(&c.RedisAddr, f.Redis.Addr)
	setInt(&c.RedisDB, f.Redis.DB)
	setString(&c.AMQPURL, f.AMQP.URL)
	setString(&c.AMQPExchange, f.AMQP.Exchange)
	setString(&c.AMQPQueue, f.AMQP.Queue)
	setInt(&c.ProgressWriteRetries, f.Planning.WriteRetries)
	setInt(&c.PlanCacheSize, f.Planning.CacheSize)
	setString(&c.DefaultUser, f.Planning.DefaultUser)
	setString(&c.LogLevel, f.Log.Level)

	if f.Planning.CacheTTL != "" {
		ttl, err := time.ParseDuration(f.Planning.CacheTTL)
		if err != nil {
			return fmt.Errorf("config file %s: planning.cache_ttl: %w", path, err)
		}
		c.PlanCacheTTL = ttl
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
