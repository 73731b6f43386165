package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noveris-inf/winact/internal/inventory"
	"github.com/noveris-inf/winact/internal/source"
)

var scanSave bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sweep configured networks for manageable Windows machines",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "save found hosts into the inventory")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Logging)

	if err := cfg.ValidateScan(); err != nil {
		return err
	}

	ctx := cmd.Context()

	logger.Info("network sweep started", "targets", len(cfg.Scan.Targets))
	hosts, err := source.NewScan(scanOptions(cfg)).Hosts(ctx)
	if err != nil {
		return err
	}
	logger.Info("network sweep finished", "found", len(hosts))

	for _, host := range hosts {
		fmt.Println(host)
	}

	if !scanSave {
		return nil
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	store, err := inventory.Open(ctx, cfg.Database.GetDSN())
	if err != nil {
		return err
	}
	defer store.Close()

	computers := make([]source.Computer, 0, len(hosts))
	for _, host := range hosts {
		computers = append(computers, source.Computer{Hostname: host})
	}
	added, _, err := store.Sync(ctx, "scan", computers, false)
	if err != nil {
		return err
	}
	logger.Info("inventory updated", "hosts", len(hosts), "added", added)
	return nil
}
