package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"gopkg.in/yaml.v3"

	auth "github.com/arthurcarlsonn/patinhas-e-cora-sub000"
	"github.com/arthurcarlsonn/patinhas-e-cora-sub000/flagstore"
)

const (
	driverFile  = "file"
	driverRedis = "redis"
	driverSQL   = "sql"
)

// FlagStoreConfig selects the durable role flag store.
type FlagStoreConfig struct {
	Driver    string        `yaml:"driver"`
	Path      string        `yaml:"path"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisTTL  time.Duration `yaml:"redis_ttl"`
	DSN       string        `yaml:"dsn"`
	Scope     string        `yaml:"scope"`
}

// Config is the CLI configuration file.
type Config struct {
	Auth      auth.BaseConfig `yaml:"auth"`
	FlagStore FlagStoreConfig `yaml:"flag_store"`
	Messages  auth.Messages   `yaml:"messages"`
}

func defaultConfig() Config {
	return Config{
		Auth: auth.DefaultConfig(),
		FlagStore: FlagStoreConfig{
			Driver: driverFile,
			Path:   ".patinhas/roleflags.json",
			Scope:  "default",
		},
		Messages: auth.DefaultMessages(),
	}
}

// loadConfig reads path over the defaults. A missing file is not an error
// when path is empty.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s not found", path)
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch strings.ToLower(c.FlagStore.Driver) {
	case driverFile:
		if c.FlagStore.Path == "" {
			return fmt.Errorf("flag_store.path is required for the file driver")
		}
	case driverRedis:
		if c.FlagStore.RedisAddr == "" {
			return fmt.Errorf("flag_store.redis_addr is required for the redis driver")
		}
	case driverSQL:
		if c.FlagStore.DSN == "" {
			return fmt.Errorf("flag_store.dsn is required for the sql driver")
		}
	default:
		return fmt.Errorf("unknown flag_store.driver %q", c.FlagStore.Driver)
	}

	for _, rule := range c.Auth.Redirects {
		if _, ok := auth.ParseRole(string(rule.Role)); !ok {
			return fmt.Errorf("redirect for %s: %w", rule.Path, auth.ErrInvalidRole)
		}
	}

	return nil
}

// openFlagStore returns the configured store and a function releasing its
// connections.
func openFlagStore(ctx context.Context, cfg FlagStoreConfig) (auth.RoleFlags, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Driver) {
	case driverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
		}
		return flagstore.NewRedisStore(client, cfg.Scope, flagstore.WithRedisTTL(cfg.RedisTTL)), client.Close, nil

	case driverSQL:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %w", auth.ErrRoleFlagsUnavailable, err)
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())
		store := flagstore.NewSQLStore(db, cfg.Scope)
		if err := store.CreateTable(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil

	default:
		return flagstore.NewFileStore(cfg.Path), noop, nil
	}
}
