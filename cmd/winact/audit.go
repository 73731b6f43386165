package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noveris-inf/winact/internal/audit"
	"github.com/noveris-inf/winact/internal/config"
	"github.com/noveris-inf/winact/internal/inventory"
	"github.com/noveris-inf/winact/internal/report"
	"github.com/noveris-inf/winact/internal/source"
	"github.com/noveris-inf/winact/internal/transport"
)

var (
	auditHostsFile string
	auditSource    string
	auditOutput    string
)

var auditCmd = &cobra.Command{
	Use:   "audit [host ...]",
	Short: "Audit activation state across a fleet",
	Long: `Audit queries each machine for its licensing product and operating
system and prints one report row per machine. Unreachable machines keep
their row with placeholder values; failures are logged, never fatal.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditHostsFile, "hosts-file", "", "file with one hostname per line")
	auditCmd.Flags().StringVar(&auditSource, "source", "static", "host source: static, directory, scan or inventory")
	auditCmd.Flags().StringVarP(&auditOutput, "output", "o", "", "report format: table, csv or json (default from config)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Logging)

	format := cfg.Report.Format
	if auditOutput != "" {
		format = auditOutput
	}
	reportFormat, err := report.ParseFormat(format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	src, cleanup, err := resolveSource(ctx, cfg, args)
	if err != nil {
		return err
	}
	defer cleanup()

	hosts, err := src.Hosts(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		return fmt.Errorf("%s source returned no hosts", src.Name())
	}

	runners, err := buildRunners(cfg)
	if err != nil {
		return err
	}

	retriever := transport.NewRetriever(logger, runners...)
	records := audit.New(retriever, logger).Run(ctx, hosts)

	return report.Write(os.Stdout, reportFormat, records)
}

// resolveSource picks the host provider for this run. The static source
// merges positional arguments with the hosts file.
func resolveSource(ctx context.Context, cfg *config.Config, args []string) (source.Source, func(), error) {
	noop := func() {}

	switch auditSource {
	case "static":
		hosts := args
		if auditHostsFile != "" {
			f, err := os.Open(auditHostsFile)
			if err != nil {
				return nil, noop, fmt.Errorf("failed to open hosts file: %w", err)
			}
			defer f.Close()
			fromFile, err := source.ParseHostList(f)
			if err != nil {
				return nil, noop, err
			}
			hosts = append(hosts, fromFile...)
		}
		return source.NewStatic(hosts), noop, nil

	case "directory":
		if err := cfg.ValidateDirectory(); err != nil {
			return nil, noop, err
		}
		return source.NewDirectory(directoryOptions(cfg)), noop, nil

	case "scan":
		if err := cfg.ValidateScan(); err != nil {
			return nil, noop, err
		}
		return source.NewScan(scanOptions(cfg)), noop, nil

	case "inventory":
		if err := cfg.ValidateDatabase(); err != nil {
			return nil, noop, err
		}
		store, err := inventory.Open(ctx, cfg.Database.GetDSN())
		if err != nil {
			return nil, noop, err
		}
		return store.AsSource(), store.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown source %q (want static, directory, scan or inventory)", auditSource)
	}
}
