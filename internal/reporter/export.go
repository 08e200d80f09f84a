// export.go: report serialization to JSON and CSV
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/errors"
)

// Export formats accepted by the Export* functions.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DateRange bounds a report period, inclusive on both ends.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LineIssuesReport is the JSON envelope for the production line report.
type LineIssuesReport struct {
	ReportType  string                       `json:"report_type"`
	DateRange   DateRange                    `json:"date_range"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Data        []datastore.LineIssueSummary `json:"data"`
}

// DefectTrendsReport is the JSON envelope for the defect trends report.
type DefectTrendsReport struct {
	ReportType  string                        `json:"report_type"`
	PeriodDays  int                           `json:"period_days"`
	GeneratedAt time.Time                     `json:"generated_at"`
	Summary     []datastore.DefectTypeSummary `json:"summary"`
	Trends      []datastore.DefectTrendPoint  `json:"trends"`
}

// ShipmentStatusReport is the JSON envelope for the shipment summary report.
type ShipmentStatusReport struct {
	ReportType  string          `json:"report_type"`
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     ShipmentSummary `json:"summary"`
}

// ExportProductionLineReport serializes the production line issues report.
func (r *Reporter) ExportProductionLineReport(dateFrom, dateTo, format string) (string, error) {
	issues, err := r.ProductionLineIssues(dateFrom, dateTo)
	if err != nil {
		return "", r.reportError(err, "production_line_issues")
	}
	if dateTo == "" {
		dateTo = dateFrom
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return marshalReport(LineIssuesReport{
			ReportType:  "Production Line Issues",
			DateRange:   DateRange{From: dateFrom, To: dateTo},
			GeneratedAt: time.Now(),
			Data:        issues,
		})
	case FormatCSV:
		records := [][]string{{"Production Line", "Total Records", "Issue Count", "Affected Lots", "Total Quantity Produced"}}
		for _, issue := range issues {
			records = append(records, []string{
				issue.ProductionLine,
				strconv.FormatInt(issue.TotalRecords, 10),
				strconv.FormatInt(issue.IssueCount, 10),
				strconv.FormatInt(issue.AffectedLots, 10),
				strconv.FormatInt(issue.TotalQuantity, 10),
			})
		}
		return writeCSV(records)
	default:
		return "", unknownFormat(format)
	}
}

// ExportDefectTrendsReport serializes the defect trends report.
func (r *Reporter) ExportDefectTrendsReport(daysBack int, format string) (string, error) {
	trends, err := r.DefectTrends(daysBack)
	if err != nil {
		return "", r.reportError(err, "defect_trends")
	}
	summary, err := r.DefectSummary()
	if err != nil {
		return "", r.reportError(err, "defect_trends")
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return marshalReport(DefectTrendsReport{
			ReportType:  "Defect Trends",
			PeriodDays:  daysBack,
			GeneratedAt: time.Now(),
			Summary:     summary,
			Trends:      trends,
		})
	case FormatCSV:
		records := [][]string{{"Date", "Defect Type", "Defect Count", "Inspection Events"}}
		for _, trend := range trends {
			records = append(records, []string{
				trend.Date,
				trend.DefectType,
				strconv.FormatInt(trend.DefectCount, 10),
				strconv.FormatInt(trend.InspectionEvents, 10),
			})
		}
		return writeCSV(records)
	default:
		return "", unknownFormat(format)
	}
}

// ExportShipmentStatusReport serializes the shipment status summary.
func (r *Reporter) ExportShipmentStatusReport(format string) (string, error) {
	summary, err := r.ShipmentStatusSummary()
	if err != nil {
		return "", r.reportError(err, "shipment_status")
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return marshalReport(ShipmentStatusReport{
			ReportType:  "Shipment Status Summary",
			GeneratedAt: time.Now(),
			Summary:     *summary,
		})
	case FormatCSV:
		records := [][]string{
			{"Status", "Count"},
			{datastore.ShipmentShipped, strconv.FormatInt(summary.Shipped, 10)},
			{datastore.ShipmentPending, strconv.FormatInt(summary.Pending, 10)},
			{datastore.ShipmentNotShipped, strconv.FormatInt(summary.NotShipped, 10)},
		}
		return writeCSV(records)
	default:
		return "", unknownFormat(format)
	}
}

func marshalReport(report any) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.New(err).
			Component("reporter").
			Category(errors.CategoryReport).
			Build()
	}
	return string(data), nil
}

func writeCSV(records [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		return "", errors.New(err).
			Component("reporter").
			Category(errors.CategoryReport).
			Build()
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func unknownFormat(format string) error {
	return errors.Newf("unknown export format: %s", format).
		Component("reporter").
		Category(errors.CategoryValidation).
		Context("format", format).
		Build()
}
