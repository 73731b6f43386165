package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noveris-inf/winact/internal/inventory"
	"github.com/noveris-inf/winact/internal/source"
)

var syncPrune bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the inventory from Active Directory",
	Long: `Sync enumerates computer accounts from the directory and upserts them
into the inventory. With --prune, directory-sourced hosts the enumeration
no longer returns are removed.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncPrune, "prune", false, "remove directory hosts missing from this enumeration")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Logging)

	if err := cfg.ValidateDirectory(); err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	ctx := cmd.Context()

	computers, err := source.NewDirectory(directoryOptions(cfg)).Computers(ctx)
	if err != nil {
		return err
	}
	if len(computers) == 0 {
		return fmt.Errorf("directory returned no hosts; refusing to sync")
	}
	logger.Info("directory enumerated", "hosts", len(computers))

	store, err := inventory.Open(ctx, cfg.Database.GetDSN())
	if err != nil {
		return err
	}
	defer store.Close()

	added, removed, err := store.Sync(ctx, "directory", computers, syncPrune)
	if err != nil {
		return err
	}

	fmt.Printf("%d hosts, %d added, %d removed\n", len(computers), added, removed)
	return nil
}
