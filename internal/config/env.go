package config

import (
	"fmt"
	"os"
)

// applyEnvOverrides checks for environment variables with WINACT_ prefix.
// Secrets are the main use: they stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	// Remote credential overrides
	if v := os.Getenv("WINACT_WINRM_USERNAME"); v != "" {
		cfg.WinRM.Username = v
	}
	if v := os.Getenv("WINACT_WINRM_PASSWORD"); v != "" {
		cfg.WinRM.Password = v
	}
	if v := os.Getenv("WINACT_WINRM_DOMAIN"); v != "" {
		cfg.WinRM.Domain = v
	}
	if v := os.Getenv("WINACT_SSH_USERNAME"); v != "" {
		cfg.SSH.Username = v
	}
	if v := os.Getenv("WINACT_SSH_PASSWORD"); v != "" {
		cfg.SSH.Password = v
	}
	if v := os.Getenv("WINACT_SSH_PASSPHRASE"); v != "" {
		cfg.SSH.Passphrase = v
	}

	// Directory overrides
	if v := os.Getenv("WINACT_DIRECTORY_URL"); v != "" {
		cfg.Directory.URL = v
	}
	if v := os.Getenv("WINACT_DIRECTORY_BIND_DN"); v != "" {
		cfg.Directory.BindDN = v
	}
	if v := os.Getenv("WINACT_DIRECTORY_PASSWORD"); v != "" {
		cfg.Directory.Password = v
	}

	// Database overrides
	if v := os.Getenv("WINACT_DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("WINACT_DATABASE_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Database.Port)
	}
	if v := os.Getenv("WINACT_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	// Auth overrides
	if v := os.Getenv("WINACT_AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("WINACT_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}
