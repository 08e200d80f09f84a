// Package importer ingests production, quality, and shipping feeds from
// CSV and Excel files. Files are validated for their required columns up
// front; after that, row failures are collected without stopping the file.
// Partial success is the expected steady state, not an error state.
package importer

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/errors"
	"github.com/mkarvon/lotline/internal/logging"
	"github.com/mkarvon/lotline/internal/matcher"
)

// expectedColumns lists the required header names per source type.
var expectedColumns = map[string][]string{
	datastore.SourceProduction: {
		"lot_id", "production_date", "production_line",
		"quantity_produced", "status", "issue_description",
	},
	datastore.SourceQuality: {
		"lot_id", "inspection_date", "defect_type",
		"defect_count", "inspection_status", "inspector", "notes",
	},
	datastore.SourceShipping: {
		"lot_id", "shipment_status", "carrier_info", "destination",
	},
}

// Result reports the outcome of one file import.
type Result struct {
	Success      bool     `json:"success"`
	BatchID      string   `json:"batch_id"`
	RowsImported int      `json:"rows_imported"`
	RowsFailed   int      `json:"rows_failed"`
	Errors       []string `json:"errors,omitempty"`
}

// Importer reads feed files and writes their rows through the matcher and
// datastore.
type Importer struct {
	ds      datastore.Interface
	matcher *matcher.Matcher
	log     *slog.Logger
}

// New returns an importer backed by the given datastore.
func New(ds datastore.Interface) *Importer {
	log := logging.ForService("importer")
	if log == nil {
		log = slog.Default().With("service", "importer")
	}
	return &Importer{
		ds:      ds,
		matcher: matcher.New(ds),
		log:     log,
	}
}

// ImportFile ingests one feed file. The source type selects the expected
// columns and the row handler. The file format comes from the extension:
// .csv, .xlsx, or .xls. Row-level failures are counted and reported in the
// result without aborting the file; only unreadable files and missing
// columns fail the whole import.
func (im *Importer) ImportFile(filePath, sourceType string) (*Result, error) {
	required, ok := expectedColumns[sourceType]
	if !ok {
		return nil, errors.Newf("unknown source type: %s", sourceType).
			Component("importer").
			Category(errors.CategoryImport).
			Context("source_type", sourceType).
			Build()
	}

	var (
		header     []string
		rows       [][]string
		fileFormat string
		err        error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		header, rows, err = readCSV(filePath)
		fileFormat = "CSV"
	case ".xlsx", ".xls":
		header, rows, err = readExcel(filePath)
		fileFormat = "Excel"
	default:
		return nil, errors.Newf("unsupported file format: %s", filepath.Ext(filePath)).
			Component("importer").
			Category(errors.CategoryImport).
			Context("file", filePath).
			Build()
	}
	if err != nil {
		return nil, err
	}

	im.log.Info("Importing file",
		"file", filePath, "source_type", sourceType, "rows", len(rows))

	columns := indexColumns(header)
	if missing := missingColumns(columns, required); len(missing) > 0 {
		return nil, errors.Newf("missing columns: %s", strings.Join(missing, ", ")).
			Component("importer").
			Category(errors.CategoryFileParsing).
			Context("file", filePath).
			Context("source_type", sourceType).
			Build()
	}

	result := &Result{BatchID: uuid.NewString()}
	for i, raw := range rows {
		row := rowValues{columns: columns, values: raw}

		var rowErr error
		switch sourceType {
		case datastore.SourceProduction:
			rowErr = im.importProductionRow(row)
		case datastore.SourceQuality:
			rowErr = im.importQualityRow(row)
		case datastore.SourceShipping:
			rowErr = im.importShippingRow(row)
		}

		if rowErr != nil {
			result.RowsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, rowErr))
			im.log.Warn("Failed to import row", "file", filePath, "row", i+1, "error", rowErr)
			continue
		}
		result.RowsImported++
	}

	status := "Success"
	if result.RowsFailed > 0 {
		status = "Partial"
	}
	im.trackImport(result.BatchID, sourceType, filepath.Base(filePath), fileFormat, status, result)

	result.Success = true
	im.log.Info("Import complete",
		"file", filePath,
		"imported", result.RowsImported,
		"failed", result.RowsFailed)
	return result, nil
}

func (im *Importer) importProductionRow(row rowValues) error {
	rawID := row.get("lot_id")
	date := row.get("production_date")
	lineName := row.get("production_line")

	lot, err := im.matcher.GetOrCreate(rawID, date, lineName)
	if err != nil {
		return err
	}
	line, err := im.ds.GetOrCreateProductionLine(lineName)
	if err != nil {
		return err
	}

	quantity, err := row.getInt("quantity_produced")
	if err != nil {
		return err
	}

	return im.ds.SaveProductionRecord(&datastore.ProductionRecord{
		LotID:            lot.ID,
		ProductionLineID: line.ID,
		ProductionDate:   date,
		RecordTimestamp:  time.Now(),
		QuantityProduced: quantity,
		Status:           row.getDefault("status", "Completed"),
		IssueDescription: row.get("issue_description"),
	})
}

func (im *Importer) importQualityRow(row rowValues) error {
	// Quality feeds carry no production context; date and line default
	lot, err := im.matcher.GetOrCreate(
		row.get("lot_id"),
		row.getDefault("production_date", today()),
		row.getDefault("production_line", "Unknown"),
	)
	if err != nil {
		return err
	}

	defect, err := im.ds.GetOrCreateDefectType(row.getDefault("defect_type", "Unknown"))
	if err != nil {
		return err
	}

	count, err := row.getInt("defect_count")
	if err != nil {
		return err
	}

	return im.ds.SaveQualityRecord(&datastore.QualityRecord{
		LotID:            lot.ID,
		InspectionDate:   row.getDefault("inspection_date", today()),
		DefectTypeID:     defect.ID,
		DefectCount:      count,
		InspectionStatus: row.getDefault("inspection_status", datastore.InspectionPass),
		Inspector:        row.get("inspector"),
		Notes:            row.get("notes"),
	})
}

func (im *Importer) importShippingRow(row rowValues) error {
	lot, err := im.matcher.GetOrCreate(row.get("lot_id"), today(), "Unknown")
	if err != nil {
		return err
	}

	return im.ds.SaveShippingRecord(&datastore.ShippingRecord{
		LotID:          lot.ID,
		ShipmentDate:   row.getDefault("shipment_date", today()),
		ShipmentStatus: row.getDefault("shipment_status", datastore.ShipmentPending),
		CarrierInfo:    row.get("carrier_info"),
		Destination:    row.get("destination"),
	})
}

// trackImport records the import run. Best-effort: a tracking failure is
// logged, the import result stands.
func (im *Importer) trackImport(batchID, sourceType, fileName, fileFormat, status string, result *Result) {
	record := &datastore.ImportRecord{
		BatchID:      batchID,
		SourceType:   sourceType,
		FileName:     fileName,
		FileFormat:   fileFormat,
		ImportStatus: status,
		ImportedRows: result.RowsImported,
		FailedRows:   result.RowsFailed,
	}
	if err := im.ds.SaveImportRecord(record); err != nil {
		im.log.Error("Failed to track import", "file", fileName, "error", err)
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// rowValues exposes one data row through its header names.
type rowValues struct {
	columns map[string]int
	values  []string
}

func (r rowValues) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[idx])
}

func (r rowValues) getDefault(column, fallback string) string {
	if v := r.get(column); v != "" {
		return v
	}
	return fallback
}

func (r rowValues) getInt(column string) (int, error) {
	v := r.get(column)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", column, v)
	}
	return n, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func missingColumns(columns map[string]int, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func readCSV(filePath string) (header []string, rows [][]string, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryFileIO).
			Context("file", filePath).
			Build()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryFileParsing).
			Context("file", filePath).
			Build()
	}
	if len(records) == 0 {
		return nil, nil, errors.Newf("file is empty: %s", filePath).
			Component("importer").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return records[0], records[1:], nil
}

func readExcel(filePath string) (header []string, rows [][]string, err error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryFileIO).
			Context("file", filePath).
			Build()
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryFileParsing).
			Context("file", filePath).
			Context("sheet", sheet).
			Build()
	}
	if len(records) == 0 {
		return nil, nil, errors.Newf("file is empty: %s", filePath).
			Component("importer").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return records[0], records[1:], nil
}
