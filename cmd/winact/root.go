package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/noveris-inf/winact/internal/config"
	"github.com/noveris-inf/winact/internal/inventory"
	"github.com/noveris-inf/winact/internal/source"
	"github.com/noveris-inf/winact/internal/transport"
)

// version is stamped by the release build via -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "winact",
	Short: "Windows activation auditor for server fleets",
	Long: `winact queries the licensing state of Windows machines over WinRM or
SSH and reports one row per machine: product, activation status, key
channel and KMS server. Fleets come from explicit host lists, Active
Directory, network sweeps or a saved inventory.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default winact.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// loadConfig layers the config file, environment overrides and logging
// flags.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		// Pick up winact.yaml from the working directory when present.
		if _, err := os.Stat("winact.yaml"); err == nil {
			path = "winact.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// initLogger builds the process logger. Logs go to stderr: stdout belongs
// to the report.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// buildRunners assembles the protocol chain in configured order.
func buildRunners(cfg *config.Config) ([]transport.Runner, error) {
	runners := make([]transport.Runner, 0, len(cfg.Protocols))
	for _, protocol := range cfg.Protocols {
		switch protocol {
		case "winrm":
			if cfg.WinRM.Username == "" {
				return nil, fmt.Errorf("winrm.username is required (or WINACT_WINRM_USERNAME)")
			}
			runners = append(runners, transport.NewWinRM(transport.WinRMOptions{
				Port:     cfg.WinRM.Port,
				UseHTTPS: cfg.WinRM.UseHTTPS,
				Insecure: cfg.WinRM.Insecure,
				Domain:   cfg.WinRM.Domain,
				Username: cfg.WinRM.Username,
				Password: cfg.WinRM.Password,
				Timeout:  cfg.WinRM.GetTimeout(),
			}))
		case "ssh":
			if cfg.SSH.Username == "" {
				return nil, fmt.Errorf("ssh.username is required (or WINACT_SSH_USERNAME)")
			}
			var key []byte
			if cfg.SSH.PrivateKeyFile != "" {
				data, err := os.ReadFile(cfg.SSH.PrivateKeyFile)
				if err != nil {
					return nil, fmt.Errorf("failed to read SSH private key: %w", err)
				}
				key = data
			}
			runner, err := transport.NewSSH(transport.SSHOptions{
				Port:       cfg.SSH.Port,
				Username:   cfg.SSH.Username,
				Password:   cfg.SSH.Password,
				PrivateKey: key,
				Passphrase: cfg.SSH.Passphrase,
				Timeout:    cfg.SSH.GetTimeout(),
			})
			if err != nil {
				return nil, err
			}
			runners = append(runners, runner)
		}
	}
	return runners, nil
}

func directoryOptions(cfg *config.Config) source.DirectoryOptions {
	return source.DirectoryOptions{
		URL:         cfg.Directory.URL,
		BindDN:      cfg.Directory.BindDN,
		Password:    cfg.Directory.Password,
		BaseDN:      cfg.Directory.BaseDN,
		NamePattern: cfg.Directory.NamePattern,
		Filter:      cfg.Directory.Filter,
		PageSize:    uint32(cfg.Directory.PageSize),
		MaxAge:      cfg.Directory.GetMaxAge(),
		Timeout:     cfg.Directory.GetTimeout(),
	}
}

func scanOptions(cfg *config.Config) source.ScanOptions {
	ports := make([]uint16, 0, len(cfg.Scan.ProbePorts))
	for _, port := range cfg.Scan.ProbePorts {
		ports = append(ports, uint16(port))
	}
	return source.ScanOptions{
		Targets:    cfg.Scan.Targets,
		ProbePorts: ports,
		Community:  cfg.Scan.Community,
		SNMPPort:   uint16(cfg.Scan.SNMPPort),
		Timeout:    cfg.Scan.GetTimeout(),
	}
}

// buildSources maps every source the configuration can support. The
// cleanup function closes whatever the sources opened.
func buildSources(ctx context.Context, cfg *config.Config) (map[string]source.Source, func(), error) {
	sources := make(map[string]source.Source)
	cleanup := func() {}

	if cfg.ValidateDirectory() == nil {
		sources["directory"] = source.NewDirectory(directoryOptions(cfg))
	}
	if cfg.ValidateScan() == nil {
		sources["scan"] = source.NewScan(scanOptions(cfg))
	}
	if cfg.ValidateDatabase() == nil {
		store, err := inventory.Open(ctx, cfg.Database.GetDSN())
		if err != nil {
			return nil, cleanup, err
		}
		sources["inventory"] = store.AsSource()
		cleanup = store.Close
	}

	return sources, cleanup, nil
}
