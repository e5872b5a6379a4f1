package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the loaded configuration is usable in the
// current environment. Development and test tolerate missing optional
// values; production requires every secret.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.JWTSecret == "" {
		errors = append(errors, "jwt secret is required")
	}

	if IsProduction() {
		required := map[string]string{
			"server_port": cfg.ServerPort,
			"server_host": cfg.ServerHost,
			"site_url":    cfg.SiteURL,
			"db_host":     cfg.DBHost,
			"db_port":     cfg.DBPort,
			"db_user":     cfg.DBUser,
			"db_password": cfg.DBPassword,
			"db_name":     cfg.DBName,
			"db_ssl_mode": cfg.DBSSLMode,
			"redis_host":  cfg.RedisHost,
			"redis_port":  cfg.RedisPort,
		}
		for name, value := range required {
			if value == "" {
				errors = append(errors, fmt.Sprintf("required secret %s is not set", name))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
