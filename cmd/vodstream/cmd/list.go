package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sincaw/vodstream/pkg"
)

var (
	outputJson bool
)

func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [options]",
		Short: "list catalog resources",
		Args:  cobra.NoArgs,
		RunE:  listCmdFunc,
	}

	cmd.Flags().BoolVar(&outputJson, "json", false, "Output as json string")

	return cmd
}

func listCmdFunc(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if !config.CatalogEnabled() {
		return fmt.Errorf("scanner.mediaRoot is not configured")
	}

	db, err := openCatalog(config, pkg.ReadOnly())
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Range(0, 0)
	if err != nil {
		return err
	}
	meta, err := db.Meta()
	if err != nil {
		return err
	}
	return printEntries(cmd.OutOrStdout(), entries, meta, outputJson)
}

func printEntries(out io.Writer, entries []*pkg.Entry, meta *pkg.Meta, asJson bool) error {
	if asJson {
		content, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(content))
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tMIME\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Path, e.Mime, e.ModTime.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	last := "never"
	if !meta.LastScan.IsZero() {
		last = meta.LastScan.Format(time.RFC3339)
	}
	_, err := fmt.Fprintf(out, "%d resources, last scan %s\n", len(entries), last)
	return err
}
