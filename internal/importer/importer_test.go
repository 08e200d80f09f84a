package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mkarvon/lotline/internal/datastore"
)

func setupTestDB(t *testing.T) *datastore.SQLiteStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&datastore.ProductionLine{},
		&datastore.DefectType{},
		&datastore.Lot{},
		&datastore.ProductionRecord{},
		&datastore.QualityRecord{},
		&datastore.ShippingRecord{},
		&datastore.NormalizationAudit{},
		&datastore.ImportRecord{},
	))
	return &datastore.SQLiteStore{DataStore: datastore.DataStore{DB: db}}
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportProductionCSV(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	path := writeCSV(t, "production_log.csv",
		"lot_id,production_date,production_line,quantity_produced,status,issue_description\n"+
			"  LOT 20260112 001 ,2026-01-12,Line-A,100,Completed,\n"+
			"lot-20260112-002,2026-01-12,Line-B,80,Halted,Conveyor jam\n")

	result, err := im.ImportFile(path, datastore.SourceProduction)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RowsImported)
	assert.Zero(t, result.RowsFailed)
	assert.NotEmpty(t, result.BatchID)

	lot, err := ds.GetLotByNumber("LOT-20260112-001")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-12", lot.ProductionDate)

	records, err := ds.ProductionRecordsForLot(lot.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 100, records[0].QuantityProduced)

	var imports []datastore.ImportRecord
	require.NoError(t, ds.DB.Find(&imports).Error)
	require.Len(t, imports, 1)
	assert.Equal(t, "Success", imports[0].ImportStatus)
	assert.Equal(t, "CSV", imports[0].FileFormat)
	assert.Equal(t, "production_log.csv", imports[0].FileName)
	assert.Equal(t, result.BatchID, imports[0].BatchID)
}

func TestImportPartialFailure(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	path := writeCSV(t, "production_log.csv",
		"lot_id,production_date,production_line,quantity_produced,status,issue_description\n"+
			"LOT-20260112-001,2026-01-12,Line-A,100,Completed,\n"+
			"LOT-20260112-002,2026-01-12,Line-A,not-a-number,Completed,\n"+
			"LOT-20260112-003,2026-01-12,Line-A,50,Completed,\n")

	result, err := im.ImportFile(path, datastore.SourceProduction)
	require.NoError(t, err)
	assert.True(t, result.Success, "partial import is still a successful import")
	assert.Equal(t, 2, result.RowsImported)
	assert.Equal(t, 1, result.RowsFailed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 2")

	var imports []datastore.ImportRecord
	require.NoError(t, ds.DB.Find(&imports).Error)
	require.Len(t, imports, 1)
	assert.Equal(t, "Partial", imports[0].ImportStatus)
	assert.Equal(t, 2, imports[0].ImportedRows)
	assert.Equal(t, 1, imports[0].FailedRows)
}

func TestImportFlagsAmbiguousLotIDs(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	path := writeCSV(t, "production_log.csv",
		"lot_id,production_date,production_line,quantity_produced,status,issue_description\n"+
			"LOT-20260112-001,2026-01-12,Line-A,100,Completed,\n"+
			"1234-5678-90,2026-01-12,Line-A,40,Completed,\n")

	result, err := im.ImportFile(path, datastore.SourceProduction)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsImported, "ambiguous identifiers import, flagged for review")

	flagged, err := ds.FlaggedNormalizations()
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "1234-5678-90", flagged[0].NormalizedLotNumber)
	assert.Equal(t, datastore.ValidationAmbiguous, flagged[0].ValidationStatus)
}

func TestImportMissingColumns(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	path := writeCSV(t, "production_log.csv",
		"lot_id,production_date\nLOT-20260112-001,2026-01-12\n")

	_, err := im.ImportFile(path, datastore.SourceProduction)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, err.Error(), "quantity_produced")

	lots, lerr := ds.GetAllLots()
	require.NoError(t, lerr)
	assert.Empty(t, lots, "no row is processed when columns are missing")
}

func TestImportUnknownSourceAndFormat(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	path := writeCSV(t, "data.csv", "lot_id\nLOT-1\n")

	_, err := im.ImportFile(path, "telemetry")
	require.Error(t, err)

	_, err = im.ImportFile(filepath.Join(t.TempDir(), "data.json"), datastore.SourceProduction)
	require.Error(t, err)
}

func TestImportQualityDefaults(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	// No production context in the quality feed, line defaults to Unknown
	path := writeCSV(t, "quality.csv",
		"lot_id,inspection_date,defect_type,defect_count,inspection_status,inspector,notes\n"+
			"LOT-20260112-001,2026-01-13,Scratch,2,Fail,Sato,Minor surface damage\n"+
			"LOT-20260112-002,,,,,,\n")

	result, err := im.ImportFile(path, datastore.SourceQuality)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsImported)

	lot, err := ds.GetLotByNumber("LOT-20260112-001")
	require.NoError(t, err)
	line, err := ds.GetProductionLine(lot.ProductionLineID)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", line.LineName)

	records, err := ds.QualityRecordsForLot(lot.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Scratch", records[0].DefectType.DefectName)
	assert.Equal(t, 2, records[0].DefectCount)

	// The empty row falls back to defaults
	defaulted, err := ds.GetLotByNumber("LOT-20260112-002")
	require.NoError(t, err)
	records, err = ds.QualityRecordsForLot(defaulted.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, datastore.InspectionPass, records[0].InspectionStatus)
	assert.Equal(t, "Unknown", records[0].DefectType.DefectName)
	assert.NotEmpty(t, records[0].InspectionDate)
}

func TestImportShippingLinksExistingLot(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	// Production import creates the lot
	prodPath := writeCSV(t, "production.csv",
		"lot_id,production_date,production_line,quantity_produced,status,issue_description\n"+
			"LOT-20260112-001,2026-01-12,Line-A,100,Completed,\n")
	_, err := im.ImportFile(prodPath, datastore.SourceProduction)
	require.NoError(t, err)

	// Shipping feed spells the identifier differently; same lot must match
	shipPath := writeCSV(t, "shipping.csv",
		"lot_id,shipment_status,carrier_info,destination,shipment_date\n"+
			"  lot 20260112 001 ,Shipped,FastFreight,Osaka DC,2026-01-15\n")
	_, err = im.ImportFile(shipPath, datastore.SourceShipping)
	require.NoError(t, err)

	lots, err := ds.GetAllLots()
	require.NoError(t, err)
	require.Len(t, lots, 1, "no duplicate lot across feeds")

	shipping, err := ds.ShippingRecordForLot(lots[0].ID)
	require.NoError(t, err)
	require.NotNil(t, shipping)
	assert.Equal(t, datastore.ShipmentShipped, shipping.ShipmentStatus)
	assert.Equal(t, "2026-01-15", shipping.ShipmentDate)
}

func TestImportExcel(t *testing.T) {
	ds := setupTestDB(t)
	im := New(ds)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"lot_id", "production_date", "production_line",
		"quantity_produced", "status", "issue_description"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	values := []any{"LOT-20260112-001", "2026-01-12", "Line-A", 100, "Completed", ""}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}

	path := filepath.Join(t.TempDir(), "production.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result, err := im.ImportFile(path, datastore.SourceProduction)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsImported)

	var imports []datastore.ImportRecord
	require.NoError(t, ds.DB.Find(&imports).Error)
	require.Len(t, imports, 1)
	assert.Equal(t, "Excel", imports[0].FileFormat)
}
