package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "flush and compact the catalog, run while the server is stopped",
		Args:  cobra.NoArgs,
		RunE:  compactCmdFunc,
	}
}

func compactCmdFunc(cmd *cobra.Command, args []string) error {
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

	if err := db.Compact(); err != nil {
		return err
	}
	count, err := db.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "compacted catalog, %d resources\n", count)
	return nil
}
