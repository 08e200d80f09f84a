// Package validate implements the validate command.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarvon/lotline/internal/conf"
	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/validator"
)

// Command creates the validate command for cross-source consistency checks.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run cross-source consistency checks",
		Long: `Scan the full corpus for orphaned records, incomplete lots, and flagged
lot identifiers. Findings are recorded as discrepancies for review.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := datastore.New(settings)
			if err := ds.Open(); err != nil {
				return err
			}
			defer ds.Close()

			report := validator.New(ds).ValidateAll()

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if len(report.Errors) > 0 {
				return fmt.Errorf("%d validation checks failed to run", len(report.Errors))
			}
			return nil
		},
	}

	return cmd
}
