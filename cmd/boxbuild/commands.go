package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/boxbuild/internal/bootstrap"
	"github.com/creamcroissant/boxbuild/internal/config"
	"github.com/creamcroissant/boxbuild/internal/migrations"
	"github.com/creamcroissant/boxbuild/internal/repository/sqlite"
)

func init() {
	// Migrate
	var migrateStatus bool
	var migrateRollback bool
	var migrateCmd = &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Database migration management",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			db, err := bootstrap.OpenSQLite(cfg.DB.Path)
			if err != nil {
				return err
			}
			fmt.Printf("Using DB path: %s\n", cfg.DB.Path)
			defer db.Close()

			if migrateStatus {
				return migrations.Status(db)
			}
			if migrateRollback {
				return migrations.Down(db)
			}

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			return migrations.Run(db, action)
		},
	}
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Show migration status")
	migrateCmd.Flags().BoolVar(&migrateRollback, "rollback", false, "Rollback the last migration")
	rootCmd.AddCommand(migrateCmd)

	// Import
	var importCmd = &cobra.Command{
		Use:   "import <seed.yaml>",
		Short: "Import groups, profiles and rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			db, err := bootstrap.OpenMigrated(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := bootstrap.Import(cmd.Context(), sqlite.NewStore(db), f)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d groups, %d profiles, %d rules\n", report.Groups, report.Profiles, report.Rules)
			return nil
		},
	}
	rootCmd.AddCommand(importCmd)

	// Profile
	var profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Profile management",
	}
	var profileListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			db, err := bootstrap.OpenMigrated(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			store := sqlite.NewStore(db)
			profiles, err := store.Profiles().List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGROUP\tTYPE\tNAME")
			for _, p := range profiles {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", p.ID, p.GroupID, p.Kind(), p.DisplayName())
			}
			return w.Flush()
		},
	}
	profileCmd.AddCommand(profileListCmd)
	rootCmd.AddCommand(profileCmd)
}
