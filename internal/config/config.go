package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr                   string `env:"LISTEN_ADDR"`
	Port                         string `env:"PORT" envDefault:"8080"`
	DatabasePath                 string `env:"DATABASE_PATH" envDefault:"habits.db"`
	DBLogLevel                   string `env:"DB_LOG_LEVEL" envDefault:"warn"`
	SessionSecret                string `env:"SESSION_SECRET" envDefault:"habitlog-dev-secret"`
	GinMode                      string `env:"GIN_MODE" envDefault:"release"`
	RequireLogin                 bool   `env:"REQUIRE_LOGIN" envDefault:"false"`
	OwnerUserName                string `env:"OWNER_USER_NAME"`
	OwnerPassword                string `env:"OWNER_PASSWORD"`
	SeedDefaultHabits            bool   `env:"SEED_DEFAULT_HABITS" envDefault:"true"`
	RecomputeOnPeriodicityChange bool   `env:"RECOMPUTE_ON_PERIODICITY_CHANGE" envDefault:"false"`
}

// Load 从环境变量读取应用配置，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Port = strings.TrimSpace(cfg.Port)
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}

	cfg.DatabasePath = strings.TrimSpace(cfg.DatabasePath)
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "habits.db"
	}

	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "habitlog-dev-secret"
	}

	cfg.OwnerUserName = strings.TrimSpace(cfg.OwnerUserName)
	cfg.OwnerPassword = strings.TrimSpace(cfg.OwnerPassword)

	return cfg, nil
}
