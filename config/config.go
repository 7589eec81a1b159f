package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/keyshop/core/config"
	coredatabase "github.com/m3rciful/keyshop/core/database"
)

// ShopConfig holds payment and storefront settings.
type ShopConfig struct {
	PaymentWallet  string `yaml:"payment_wallet" envconfig:"SHOP_PAYMENT_WALLET"`
	PaymentNetwork string `yaml:"payment_network" envconfig:"SHOP_PAYMENT_NETWORK"`
	Currency       string `yaml:"currency" envconfig:"SHOP_CURRENCY"`
	// ExpirySweepSpec is a cron spec for the key expiry sweeper.
	ExpirySweepSpec string `yaml:"expiry_sweep_spec" envconfig:"SHOP_EXPIRY_SWEEP_SPEC"`
}

// RedisConfig holds settings for the Redis-backed dialog session store.
// Empty Addr falls back to the in-memory store.
type RedisConfig struct {
	Addr     string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"REDIS_DB"`
	StateTTL time.Duration `yaml:"state_ttl" envconfig:"REDIS_STATE_TTL"`
}

// Config is the full application configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Shop     ShopConfig          `yaml:"shop"`
	Redis    RedisConfig         `yaml:"redis"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads the application config from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Shop.PaymentWallet) == "" {
		return fmt.Errorf("shop.payment_wallet is required")
	}
	if cfg.Shop.PaymentNetwork == "" {
		cfg.Shop.PaymentNetwork = "TRC20"
	}
	if cfg.Shop.Currency == "" {
		cfg.Shop.Currency = "USDT"
	}
	if cfg.Shop.ExpirySweepSpec == "" {
		cfg.Shop.ExpirySweepSpec = "0 3 * * *"
	}
	if cfg.Redis.StateTTL <= 0 {
		cfg.Redis.StateTTL = 24 * time.Hour
	}
	return nil
}
