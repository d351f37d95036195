package internal

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/heinsupport/hein-assist/internal/kv"
)

const (
	defaultDispatchTimeout = 90 * time.Second
	envPrefix              = "HEIN_"
)

// Config is the client configuration. Values are layered: defaults, then
// the YAML file, then .env, then HEIN_* environment variables. Command
// line flags are applied on top by the caller.
type Config struct {
	Endpoint     string             `yaml:"endpoint"`
	Language     string             `yaml:"language"`
	LogLevel     string             `yaml:"log_level"`
	Storage      StorageConfig      `yaml:"storage"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Dispatch     DispatchConfig     `yaml:"dispatch"`
	Admin        AdminConfig        `yaml:"admin"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
}

type ConnectivityConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Method   string        `yaml:"method"`
}

type DispatchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// AdminConfig holds the manual-management credential. PasswordHash is a
// bcrypt hash; Password is accepted for convenience and hashed on use.
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Password     string `yaml:"password"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Language: string(LanguageEN),
		LogLevel: "info",
		Storage: StorageConfig{
			Driver: string(kv.DriverSQLite),
		},
		Connectivity: ConnectivityConfig{
			Interval: DefaultProbeInterval,
			Timeout:  DefaultProbeTimeout,
			Method:   http.MethodGet,
		},
		Dispatch: DispatchConfig{
			Timeout: defaultDispatchTimeout,
		},
		Admin: AdminConfig{
			Username: DefaultAdminUser,
		},
	}
}

// LoadConfig builds a Config from the YAML file at configPath and the .env
// file at envPath. Either file may be missing.
func LoadConfig(configPath, envPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			LogDebug("No config file at %s, using defaults", configPath)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ParseError{Source: "config", Key: configPath, Err: err}
			}
		}
	}

	if envPath != "" {
		// existing environment variables win over .env entries
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, &ParseError{Source: "env", Key: envPath, Err: err}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Endpoint = getEnv("ENDPOINT", c.Endpoint)
	c.Language = getEnv("LANGUAGE", c.Language)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)
	c.Storage.RedisURL = getEnv("REDIS_URL", c.Storage.RedisURL)
	c.Connectivity.Method = getEnv("PROBE_METHOD", c.Connectivity.Method)
	c.Admin.Username = getEnv("ADMIN_USER", c.Admin.Username)
	c.Admin.PasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.Admin.PasswordHash)
	c.Admin.Password = getEnv("ADMIN_PASSWORD", c.Admin.Password)

	var err error
	if c.Connectivity.Interval, err = getEnvDuration("PROBE_INTERVAL", c.Connectivity.Interval); err != nil {
		return err
	}
	if c.Connectivity.Timeout, err = getEnvDuration("PROBE_TIMEOUT", c.Connectivity.Timeout); err != nil {
		return err
	}
	if c.Dispatch.Timeout, err = getEnvDuration("DISPATCH_TIMEOUT", c.Dispatch.Timeout); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if _, err := kv.ParseDriver(c.Storage.Driver); err != nil {
		return err
	}
	if _, err := ParseLanguage(c.Language); err != nil {
		return err
	}
	switch strings.ToUpper(c.Connectivity.Method) {
	case http.MethodGet, http.MethodOptions:
	default:
		return fmt.Errorf("invalid connectivity.method %q: use GET or OPTIONS", c.Connectivity.Method)
	}
	if c.Connectivity.Interval <= 0 {
		return fmt.Errorf("connectivity.interval must be positive, got %s", c.Connectivity.Interval)
	}
	if c.Connectivity.Timeout <= 0 {
		return fmt.Errorf("connectivity.timeout must be positive, got %s", c.Connectivity.Timeout)
	}
	if c.Dispatch.Timeout < 0 {
		return fmt.Errorf("dispatch.timeout must not be negative, got %s", c.Dispatch.Timeout)
	}
	return nil
}

// AdminPasswordHash returns the configured bcrypt hash, hashing a plain
// password when only that was given. Empty means no admin is configured.
func (c *Config) AdminPasswordHash() (string, error) {
	if c.Admin.PasswordHash != "" {
		return c.Admin.PasswordHash, nil
	}
	if c.Admin.Password == "" {
		return "", nil
	}
	return HashPassword(c.Admin.Password)
}

// getEnv reads HEIN_<key>, falling back when it is unset
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ParseError{Source: "env", Key: envPrefix + key, Err: err}
	}
	return d, nil
}
