// Package report implements the report commands.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkarvon/lotline/internal/conf"
	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/reporter"
)

// Command creates the report command group.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate operational reports",
	}

	cmd.AddCommand(
		linesCommand(settings),
		defectsCommand(settings),
		shipmentsCommand(settings),
	)
	return cmd
}

func newReporter(settings *conf.Settings) (*reporter.Reporter, datastore.Interface, error) {
	ds := datastore.New(settings)
	if err := ds.Open(); err != nil {
		return nil, nil, err
	}
	ttl := time.Duration(settings.Report.CacheTTL) * time.Second
	return reporter.New(ds, ttl), ds, nil
}

// emit prints the report, or writes it into the export directory when an
// output file name is given.
func emit(settings *conf.Settings, output, content string) error {
	if output == "" {
		fmt.Println(content)
		return nil
	}

	dir := settings.Export.Directory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, output)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}

func linesCommand(settings *conf.Settings) *cobra.Command {
	var dateFrom, dateTo, format, output string

	cmd := &cobra.Command{
		Use:   "lines",
		Short: "Production line issue summary for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ds, err := newReporter(settings)
			if err != nil {
				return err
			}
			defer ds.Close()

			if dateFrom == "" {
				dateFrom = time.Now().AddDate(0, 0, -7).Format("2006-01-02")
			}
			content, err := r.ExportProductionLineReport(dateFrom, dateTo, format)
			if err != nil {
				return err
			}
			return emit(settings, output, content)
		},
	}

	cmd.Flags().StringVar(&dateFrom, "from", "", "Range start (YYYY-MM-DD), defaults to a week back")
	cmd.Flags().StringVar(&dateTo, "to", "", "Range end (YYYY-MM-DD), defaults to range start")
	cmd.Flags().StringVarP(&format, "format", "f", reporter.FormatJSON, "Output format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File name to write into the export directory")
	return cmd
}

func defectsCommand(settings *conf.Settings) *cobra.Command {
	var daysBack int
	var format, output string

	cmd := &cobra.Command{
		Use:   "defects",
		Short: "Defect trends grouped by day and type",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ds, err := newReporter(settings)
			if err != nil {
				return err
			}
			defer ds.Close()

			content, err := r.ExportDefectTrendsReport(daysBack, format)
			if err != nil {
				return err
			}
			return emit(settings, output, content)
		},
	}

	cmd.Flags().IntVar(&daysBack, "days", 30, "Number of days to look back")
	cmd.Flags().StringVarP(&format, "format", "f", reporter.FormatJSON, "Output format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File name to write into the export directory")
	return cmd
}

func shipmentsCommand(settings *conf.Settings) *cobra.Command {
	var lotNumber, format, output string

	cmd := &cobra.Command{
		Use:   "shipments",
		Short: "Shipment status summary, or one lot's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ds, err := newReporter(settings)
			if err != nil {
				return err
			}
			defer ds.Close()

			if lotNumber != "" {
				status, err := r.ShipmentStatusByNumber(lotNumber)
				if err != nil {
					return err
				}
				fmt.Printf("Lot %s (%s, line %s): %s\n",
					status.LotNumber, status.ProductionDate, status.ProductionLine,
					status.ShipmentStatus)
				if status.HasRecord {
					fmt.Printf("  shipped %s via %s to %s\n",
						status.ShipmentDate, status.CarrierInfo, status.Destination)
				}
				return nil
			}

			content, err := r.ExportShipmentStatusReport(format)
			if err != nil {
				return err
			}
			return emit(settings, output, content)
		},
	}

	cmd.Flags().StringVarP(&lotNumber, "lot", "l", "", "Look up a single lot by number")
	cmd.Flags().StringVarP(&format, "format", "f", reporter.FormatJSON, "Output format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File name to write into the export directory")
	return cmd
}
