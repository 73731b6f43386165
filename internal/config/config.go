// Package config
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Protocols []string        `yaml:"protocols" validate:"required,min=1,dive,oneof=winrm ssh"`
	WinRM     WinRMConfig     `yaml:"winrm"`
	SSH       SSHConfig       `yaml:"ssh"`
	Directory DirectoryConfig `yaml:"directory"`
	Scan      ScanConfig      `yaml:"scan"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WinRMConfig struct {
	Port      int    `yaml:"port" validate:"min=1,max=65535"`
	UseHTTPS  bool   `yaml:"use_https"`
	Insecure  bool   `yaml:"insecure"`
	Domain    string `yaml:"domain"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TimeoutMS int    `yaml:"timeout_ms" validate:"min=1"`
}

type SSHConfig struct {
	Port           int    `yaml:"port" validate:"min=1,max=65535"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	PrivateKeyFile string `yaml:"private_key_file"`
	Passphrase     string `yaml:"passphrase"`
	TimeoutMS      int    `yaml:"timeout_ms" validate:"min=1"`
}

type DirectoryConfig struct {
	URL         string `yaml:"url"`
	BindDN      string `yaml:"bind_dn"`
	Password    string `yaml:"password"`
	BaseDN      string `yaml:"base_dn"`
	NamePattern string `yaml:"name_pattern"`
	Filter      string `yaml:"filter"`
	PageSize    int    `yaml:"page_size" validate:"min=1,max=10000"`
	MaxAgeDays  int    `yaml:"max_age_days" validate:"min=0"`
	TimeoutMS   int    `yaml:"timeout_ms" validate:"min=1"`
}

type ScanConfig struct {
	Targets    []string `yaml:"targets"`
	ProbePorts []int    `yaml:"probe_ports" validate:"min=1,dive,min=1,max=65535"`
	Community  string   `yaml:"community"`
	SNMPPort   int      `yaml:"snmp_port" validate:"min=1,max=65535"`
	TimeoutMS  int      `yaml:"timeout_ms" validate:"min=1"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"min=0,max=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"ssl_mode"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms" validate:"min=1"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms" validate:"min=1"`
}

type AuthConfig struct {
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	JWTSecret      string `yaml:"jwt_secret"`
	JWTExpiryHours int    `yaml:"jwt_expiry_hours" validate:"min=1"`
}

type ReportConfig struct {
	Format string `yaml:"format" validate:"oneof=table csv json"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Global validator instance
var validate = validator.New()

// Default returns the configuration an audit run starts from before the
// file and environment are layered on. Database coordinates and server
// auth have no defaults: commands that need them validate explicitly.
func Default() *Config {
	return &Config{
		Protocols: []string{"winrm"},
		WinRM: WinRMConfig{
			Port:      5985,
			Insecure:  true,
			TimeoutMS: 60000,
		},
		SSH: SSHConfig{
			Port:      22,
			TimeoutMS: 60000,
		},
		Directory: DirectoryConfig{
			PageSize:  500,
			TimeoutMS: 30000,
		},
		Scan: ScanConfig{
			ProbePorts: []int{5985, 22},
			SNMPPort:   161,
			TimeoutMS:  2000,
		},
		Database: DatabaseConfig{
			Port:    5432,
			User:    "winact",
			SSLMode: "disable",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeoutMS:  30000,
			WriteTimeoutMS: 30000,
		},
		Auth: AuthConfig{
			Username:       "admin",
			JWTExpiryHours: 24,
		},
		Report: ReportConfig{
			Format: "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path layered over defaults, then applies
// environment variable overrides. An empty path skips the file and
// configures from defaults and environment alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants every command relies on. Feature-specific
// requirements (directory credentials, database coordinates, server auth)
// have their own checks so audit-only runs don't need them.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, len(verrs))
	for i, fe := range verrs {
		messages[i] = formatFieldError(fe)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// formatFieldError creates human-readable messages for validation failures
func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// ValidateDirectory ensures directory enumeration is configured.
func (c *Config) ValidateDirectory() error {
	if c.Directory.URL == "" {
		return fmt.Errorf("directory.url is required (ldap:// or ldaps://)")
	}
	if c.Directory.BaseDN == "" {
		return fmt.Errorf("directory.base_dn is required")
	}
	return nil
}

// ValidateDatabase ensures the inventory store is configured.
func (c *Config) ValidateDatabase() error {
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host and dbname are required")
	}
	return nil
}

// ValidateScan ensures at least one sweep target is configured.
func (c *Config) ValidateScan() error {
	if len(c.Scan.Targets) == 0 {
		return fmt.Errorf("scan.targets must list at least one IP, CIDR block or range")
	}
	return nil
}

// ValidateServer ensures the API can authenticate clients.
func (c *Config) ValidateServer() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("WINACT_AUTH_JWT_SECRET is required (minimum 32 characters)")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters")
	}
	if c.Auth.Password == "" || c.Auth.Password == "changeme" {
		return fmt.Errorf("WINACT_AUTH_PASSWORD must be set to a strong password")
	}
	return nil
}

// GetTimeout returns the WinRM operation timeout as a duration
func (w *WinRMConfig) GetTimeout() time.Duration {
	return time.Duration(w.TimeoutMS) * time.Millisecond
}

// GetTimeout returns the SSH operation timeout as a duration
func (s *SSHConfig) GetTimeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// GetTimeout returns the LDAP operation timeout as a duration
func (d *DirectoryConfig) GetTimeout() time.Duration {
	return time.Duration(d.TimeoutMS) * time.Millisecond
}

// GetMaxAge returns the staleness window as a duration
func (d *DirectoryConfig) GetMaxAge() time.Duration {
	return time.Duration(d.MaxAgeDays) * 24 * time.Hour
}

// GetTimeout returns the per-address probe timeout as a duration
func (s *ScanConfig) GetTimeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// GetReadTimeout returns the read timeout as a duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// GetWriteTimeout returns the write timeout as a duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// GetDSN returns the PostgreSQL connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// GetJWTExpiry returns JWT expiry as duration
func (a *AuthConfig) GetJWTExpiry() time.Duration {
	return time.Duration(a.JWTExpiryHours) * time.Hour
}
