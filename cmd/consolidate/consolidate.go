// Package consolidate implements the consolidate command.
package consolidate

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarvon/lotline/internal/conf"
	"github.com/mkarvon/lotline/internal/consolidator"
	"github.com/mkarvon/lotline/internal/datastore"
)

// Command creates the consolidate command for the unified lot view.
func Command(settings *conf.Settings) *cobra.Command {
	var filter datastore.LotFilter

	cmd := &cobra.Command{
		Use:   "consolidate [lot-number]",
		Short: "Show the consolidated view of lots",
		Long: `Consolidate production, quality, and shipping data per lot. With a lot
number argument, shows that single lot; without one, lists all lots matching
the filters, newest production date first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := datastore.New(settings)
			if err := ds.Open(); err != nil {
				return err
			}
			defer ds.Close()

			c := consolidator.New(ds)

			var result any
			if len(args) == 1 {
				view, err := c.ConsolidateLotByNumber(args[0])
				if err != nil {
					return err
				}
				result = view
			} else {
				views, err := c.ConsolidateAll(&filter)
				if err != nil {
					return err
				}
				result = views
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.ProductionLine, "line", "", "Filter by production line name")
	cmd.Flags().StringVar(&filter.DateFrom, "from", "", "Production date range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.DateTo, "to", "", "Production date range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.ShipmentStatus, "status", "", "Filter by shipment status")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of lots to show")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Number of lots to skip")

	return cmd
}
