package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/heinsupport/hein-assist/internal/kv"
	"github.com/spf13/cobra"
)

// loadConfig resolves the layered configuration and applies the
// persistent flags on top of it
func loadConfig() (*internal.Config, internal.AppPaths, error) {
	paths, err := internal.DetectAppPaths()
	if err != nil {
		return nil, internal.AppPaths{}, err
	}

	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = paths.ConfigFile()
	}
	envFile := envFilePath
	if envFile == "" {
		envFile = paths.EnvFile()
	}

	cfg, err := internal.LoadConfig(cfgFile, envFile)
	if err != nil {
		return nil, paths, fmt.Errorf("failed to load config: %w", err)
	}

	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if langFlag != "" {
		cfg.Language = langFlag
	}
	if storageDriver != "" {
		cfg.Storage.Driver = storageDriver
	}
	if storagePath != "" {
		cfg.Storage.Path = storagePath
	}
	if redisURL != "" {
		cfg.Storage.RedisURL = redisURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, paths, fmt.Errorf("invalid configuration: %w", err)
	}

	if verbose {
		internal.SetVerbose(true)
	} else {
		internal.SetLogLevel(internal.ParseLogLevel(cfg.LogLevel))
	}
	return cfg, paths, nil
}

// openStore opens the durable medium selected by cfg
func openStore(cfg *internal.Config, paths internal.AppPaths) (kv.Store, error) {
	driver, err := kv.ParseDriver(cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}

	var opts []kv.Option
	switch driver {
	case kv.DriverSQLite, kv.DriverPebble:
		path := cfg.Storage.Path
		if path == "" {
			path = paths.StorePath(string(driver))
		}
		parent := path
		if driver == kv.DriverSQLite {
			parent = filepath.Dir(path)
		}
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		internal.LogDebug("Opening %s store at %s", driver, path)
		opts = append(opts, kv.WithPath(path))
	case kv.DriverRedis:
		if cfg.Storage.RedisURL == "" {
			return nil, fmt.Errorf("%w: redis driver needs storage.redis_url", kv.ErrInvalidConfig)
		}
		client, err := kv.NewRedisClient(cfg.Storage.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = append(opts, kv.WithRedisClient(client))
	}

	store, err := kv.NewStore(driver, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}

// openApp wires config, the durable store and the core components, then
// restores persisted state. The caller must Close the App.
func openApp(ctx context.Context) (*internal.App, *internal.Config, error) {
	cfg, paths, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg, paths)
	if err != nil {
		return nil, nil, err
	}

	hash, err := cfg.AdminPasswordHash()
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to prepare admin credentials: %w", err)
	}
	opts := []internal.AppOption{
		internal.WithAdminGate(internal.NewAdminGate(cfg.Admin.Username, hash)),
	}

	if cfg.Endpoint != "" {
		client, err := internal.NewWorkflowClient(cfg.Endpoint,
			internal.WithDispatchTimeout(cfg.Dispatch.Timeout),
			internal.WithProbeMethod(cfg.Connectivity.Method),
		)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("invalid endpoint: %w", err)
		}
		opts = append(opts,
			internal.WithAssistant(client),
			internal.WithMonitor(internal.NewConnectivityMonitor(client, cfg.Connectivity.Interval, cfg.Connectivity.Timeout)),
		)
	} else {
		internal.LogDebug("No endpoint configured; sending is disabled")
	}

	// Validate has already accepted the code
	lang, _ := internal.ParseLanguage(cfg.Language)

	app := internal.NewApp(store, opts...)
	if err := app.Load(ctx, lang); err != nil {
		_ = app.Close()
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}
	return app, cfg, nil
}

// closeApp closes app, logging rather than returning the error
func closeApp(app *internal.App) {
	if err := app.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// resolveSession accepts a full session id or a unique prefix of one
func resolveSession(app *internal.App, ref string) (internal.Session, error) {
	if sess, ok := app.Sessions().Get(ref); ok {
		return sess, nil
	}
	var match *internal.Session
	for _, sess := range app.Sessions().Sessions() {
		if ref != "" && strings.HasPrefix(sess.ID, ref) {
			if match != nil {
				return internal.Session{}, fmt.Errorf("session id %q is ambiguous", ref)
			}
			s := sess
			match = &s
		}
	}
	if match == nil {
		return internal.Session{}, fmt.Errorf("%w: %s (use 'hein-assist list' to see available sessions)", internal.ErrSessionNotFound, ref)
	}
	return *match, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
