// Package ingest implements the import command for feed files.
package ingest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarvon/lotline/internal/conf"
	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/importer"
)

// Command creates the import command for loading feed files.
func Command(settings *conf.Settings) *cobra.Command {
	var sourceType string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import feed files",
		Long: `Import one or more production, quality, or shipping feed files.
Supported formats are CSV and Excel (.xlsx). Row failures are reported but
do not stop the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := datastore.New(settings)
			if err := ds.Open(); err != nil {
				return err
			}
			defer ds.Close()

			im := importer.New(ds)
			failed := 0
			for _, filePath := range args {
				result, err := im.ImportFile(filePath, sourceType)
				if err != nil {
					fmt.Printf("%s: import failed: %v\n", filePath, err)
					failed++
					continue
				}
				fmt.Printf("%s: %d rows imported, %d failed (batch %s)\n",
					filePath, result.RowsImported, result.RowsFailed, result.BatchID)
				for _, rowErr := range result.Errors {
					fmt.Printf("  %s\n", rowErr)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to import", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceType, "source", "s", datastore.SourceProduction,
		"Source type: production, quality, or shipping")

	return cmd
}
