package main

import (
	"fmt"

	"github.com/sguter90/fieldmaestro/pkg/spool"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import spooled telemetry records",
	Long:  `Move the records of the local telemetry spool into the database.`,
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)

	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}

	sp := spool.New(app.Config.Spool.Path, app.Logger)
	result, err := importSpool(cmd.Context(), sp, dbManager, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to import records: %w", err)
	}

	fmt.Printf("✓ Imported %d of %d records from %s (%d skipped)\n", result.Inserted, result.Read, sp.Path(), result.Skipped)
	return nil
}
