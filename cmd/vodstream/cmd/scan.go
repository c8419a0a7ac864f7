package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sincaw/vodstream/cmd/vodstream/server/scan"
)

func NewScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "scan media root once and update the catalog",
		Args:  cobra.NoArgs,
		RunE:  scanCmdFunc,
	}
}

func scanCmdFunc(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if !config.CatalogEnabled() {
		return fmt.Errorf("scanner.mediaRoot is not configured")
	}

	db, err := openCatalog(config)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := scan.New(db, config.Scanner)
	if err != nil {
		return err
	}
	report, err := s.Scan(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %d, updated %d, unchanged %d, removed %d, duplicates %d\n",
		report.Added, report.Updated, report.Unchanged, report.Removed, report.Duplicates)
	return nil
}
