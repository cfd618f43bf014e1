package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sailcare/clinic-api/internal/clinictime"
	"github.com/sailcare/clinic-api/internal/db"
	"github.com/sailcare/clinic-api/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := db.NewMigrator(pool).Up(cmd.Context())
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		logger.L().Infow("migrations applied", "count", applied)
		fmt.Printf("applied %d migration(s)\n", applied)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		list, err := db.NewMigrator(pool).Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
		for _, m := range list {
			at := "pending"
			if m.Applied && m.AppliedAt != nil {
				at = clinictime.Format(*m.AppliedAt)
			}
			fmt.Fprintf(w, "%03d\t%s\t%s\n", m.Version, m.Name, at)
		}
		return w.Flush()
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
