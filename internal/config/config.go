package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Webhook struct {
		// Secret is the shared HMAC secret for both webhook directions.
		Secret string `yaml:"secret"`
		// PartnerURL is where outbound payment notifications go.
		PartnerURL string `yaml:"partner_url"`
	} `yaml:"webhook"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// Load reads the optional YAML file and then applies environment
// overrides. Components never read the environment themselves; main
// hands them values from here.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	overrideString(&cfg.Server.Address, "ADDR")
	overrideString(&cfg.Database.URL, "DB_URL")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")
	overrideString(&cfg.Webhook.Secret, "WEBHOOK_SECRET")
	overrideString(&cfg.Webhook.PartnerURL, "UHI_WEBHOOK_URL")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Webhook.Secret == "" {
		return Config{}, fmt.Errorf("webhook secret is required (WEBHOOK_SECRET)")
	}
	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
