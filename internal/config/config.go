// Package config loads service configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "SATWATCH_CONFIG"

	httpAddrEnv       = "SATWATCH_HTTP_ADDR"
	trustProxyEnv     = "SATWATCH_TRUST_PROXY"
	authEnabledEnv    = "SATWATCH_AUTH_ENABLED"
	authTokenEnv      = "SATWATCH_AUTH_TOKEN"
	tleSourceURLEnv   = "SATWATCH_TLE_SOURCE_URL"
	tleExtraURLsEnv   = "SATWATCH_TLE_EXTRA_URLS"
	tleCacheDirEnv    = "SATWATCH_TLE_CACHE_DIR"
	tleFetchOnBootEnv = "SATWATCH_TLE_FETCH_ON_START"
	databaseDSNEnv    = "SATWATCH_DATABASE_DSN"
	snapshotEveryEnv  = "SATWATCH_SNAPSHOT_INTERVAL"
	propWorkersEnv    = "SATWATCH_PROP_WORKERS"
	logLevelEnv       = "SATWATCH_LOG_LEVEL"
)

// Config holds all service settings.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	TLE        TLEConfig        `yaml:"tle"`
	Database   DatabaseConfig   `yaml:"database"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Prediction PredictionConfig `yaml:"prediction"`
	Workers    int              `yaml:"workers"`
	LogLevel   string           `yaml:"logLevel"`
}

// HTTPConfig describes the listener.
type HTTPConfig struct {
	Addr       string `yaml:"addr"`
	TrustProxy bool   `yaml:"trustProxy"`
}

// AuthConfig enables Bearer token authentication.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// TLEConfig describes where element sets come from and how they are cached.
type TLEConfig struct {
	SourceURL     string   `yaml:"sourceUrl"`
	ExtraURLs     []string `yaml:"extraUrls"`
	CacheDir      string   `yaml:"cacheDir"`
	CacheMaxFiles int      `yaml:"cacheMaxFiles"`
	FetchOnStart  bool     `yaml:"fetchOnStart"`
}

// DatabaseConfig describes the optional PostgreSQL connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SnapshotConfig controls the background constellation recorder.
type SnapshotConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"`
}

// PredictionConfig holds the default pass-prediction parameters used when
// a request omits them.
type PredictionConfig struct {
	DurationMinutes int     `yaml:"durationMinutes"`
	StepSeconds     int     `yaml:"stepSeconds"`
	MinElevationDeg float64 `yaml:"minElevationDeg"`
}

// Load reads the YAML file named by SATWATCH_CONFIG (if set) on top of the
// defaults, then applies environment overrides. It returns an error only
// for settings that cannot be safely defaulted.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}

	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return cfg, fmt.Errorf("%s is required when auth is enabled", authTokenEnv)
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(trustProxyEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean value: %w", trustProxyEnv, err)
		}
		c.HTTP.TrustProxy = b
	}

	if v := os.Getenv(authEnabledEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean value: %w", authEnabledEnv, err)
		}
		c.Auth.Enabled = b
	}
	if v := os.Getenv(authTokenEnv); v != "" {
		c.Auth.Token = v
	}

	if v := os.Getenv(tleSourceURLEnv); v != "" {
		c.TLE.SourceURL = v
	}
	if v := os.Getenv(tleExtraURLsEnv); v != "" {
		c.TLE.ExtraURLs = splitURLs(v)
	}
	if v := os.Getenv(tleCacheDirEnv); v != "" {
		c.TLE.CacheDir = v
	}
	if v := os.Getenv(tleFetchOnBootEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean value: %w", tleFetchOnBootEnv, err)
		}
		c.TLE.FetchOnStart = b
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(snapshotEveryEnv); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive number of seconds", snapshotEveryEnv)
		}
		c.Snapshot.IntervalSeconds = n
	}

	if v := os.Getenv(propWorkersEnv); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer", propWorkersEnv)
		}
		c.Workers = n
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.LogLevel = v
	}

	return nil
}

func splitURLs(s string) []string {
	var urls []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		TLE: TLEConfig{
			CacheDir:      "/tmp/satwatch/tle",
			CacheMaxFiles: 5,
			FetchOnStart:  false,
		},
		Snapshot: SnapshotConfig{IntervalSeconds: 60},
		Prediction: PredictionConfig{
			DurationMinutes: 120,
			StepSeconds:     15,
			MinElevationDeg: 10.0,
		},
		Workers:  runtime.NumCPU(),
		LogLevel: "info",
	}
}
