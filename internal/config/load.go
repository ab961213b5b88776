package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables (prefix DRAFTWIRE_, nested keys
// joined with underscores) take precedence over file values, which
// take precedence over defaults.
// Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DRAFTWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; environment-only deployments are fine.
	v.SetConfigName("draftwire")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/draftwire")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for all optional settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("publish.default_status", "draft")
	v.SetDefault("publish.default_post_type", "post")
	v.SetDefault("publish.allowed_post_types", []string{"post", "page"})
	v.SetDefault("publish.default_category", "Uncategorized")

	// Empty defaults so viper binds the keys and AutomaticEnv can see
	// them during Unmarshal.
	v.SetDefault("redis.password", "")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.secret_material", "")
	v.SetDefault("auth.secret_salt", "")
	v.SetDefault("auth.admin_jwt_secret", "")
	v.SetDefault("callback.url", "")
	v.SetDefault("callback.key", "")
	v.SetDefault("content_store.base_url", "")
	v.SetDefault("content_store.token", "")
	v.SetDefault("notify.smtp_addr", "")
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.to", "")
}
