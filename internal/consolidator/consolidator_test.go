package consolidator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	))
	return &datastore.SQLiteStore{DataStore: datastore.DataStore{DB: db}}
}

func seedLot(t *testing.T, ds *datastore.SQLiteStore, number, date, lineName string) datastore.Lot {
	t.Helper()

	line, err := ds.GetOrCreateProductionLine(lineName)
	require.NoError(t, err)

	lot := datastore.Lot{
		BusinessLotNumber: number,
		ProductionDate:    date,
		ProductionLineID:  line.ID,
	}
	require.NoError(t, ds.CreateLot(&lot))
	return lot
}

func addProduction(t *testing.T, ds *datastore.SQLiteStore, lot datastore.Lot, quantity int, ts time.Time) {
	t.Helper()
	require.NoError(t, ds.SaveProductionRecord(&datastore.ProductionRecord{
		LotID:            lot.ID,
		ProductionLineID: lot.ProductionLineID,
		ProductionDate:   lot.ProductionDate,
		RecordTimestamp:  ts,
		QuantityProduced: quantity,
		Status:           "Completed",
	}))
}

func addQuality(t *testing.T, ds *datastore.SQLiteStore, lot datastore.Lot, defectName string, count int, status, date string) {
	t.Helper()
	defect, err := ds.GetOrCreateDefectType(defectName)
	require.NoError(t, err)
	require.NoError(t, ds.SaveQualityRecord(&datastore.QualityRecord{
		LotID:            lot.ID,
		InspectionDate:   date,
		DefectTypeID:     defect.ID,
		DefectCount:      count,
		InspectionStatus: status,
	}))
}

func TestConsolidateLotSummary(t *testing.T) {
	ds := setupTestDB(t)
	c := New(ds)

	lot := seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")
	base := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	addProduction(t, ds, lot, 10, base)
	addProduction(t, ds, lot, 20, base.Add(time.Hour))
	addProduction(t, ds, lot, 30, base.Add(2*time.Hour))
	addQuality(t, ds, lot, "Scratch", 1, datastore.InspectionPass, "2026-01-13")
	addQuality(t, ds, lot, "Dent", 2, datastore.InspectionFail, "2026-01-14")

	view, err := c.ConsolidateLot(lot.ID)
	require.NoError(t, err)

	assert.Equal(t, "LOT-20260112-001", view.LotNumber)
	assert.Equal(t, "Line-A", view.ProductionLine)
	assert.Equal(t, 3, view.Summary.TotalProductionRecords)
	assert.Equal(t, 2, view.Summary.TotalQualityRecords)
	assert.Equal(t, 60, view.Summary.TotalQuantityProduced)
	assert.Equal(t, 3, view.Summary.TotalDefects)
	assert.Equal(t, 1, view.Summary.PassCount)
	assert.Equal(t, 1, view.Summary.FailCount)
	assert.False(t, view.Summary.HasShippingRecord)
	assert.Equal(t, datastore.NoShipmentRecord, view.Summary.ShipmentStatus)
	assert.Nil(t, view.ShippingRecord)
}

func TestConsolidateLotRecordOrdering(t *testing.T) {
	ds := setupTestDB(t)
	c := New(ds)

	lot := seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")
	base := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	addProduction(t, ds, lot, 10, base)
	addProduction(t, ds, lot, 20, base.Add(time.Hour))
	addQuality(t, ds, lot, "Scratch", 1, datastore.InspectionPass, "2026-01-13")
	addQuality(t, ds, lot, "Dent", 2, datastore.InspectionFail, "2026-01-15")

	view, err := c.ConsolidateLot(lot.ID)
	require.NoError(t, err)

	// Newest first on both record kinds
	require.Len(t, view.ProductionRecords, 2)
	assert.Equal(t, 20, view.ProductionRecords[0].QuantityProduced)
	require.Len(t, view.QualityRecords, 2)
	assert.Equal(t, "2026-01-15", view.QualityRecords[0].InspectionDate)
	assert.Equal(t, "Dent", view.QualityRecords[0].DefectType.DefectName)
}

func TestConsolidateLotWithShipping(t *testing.T) {
	ds := setupTestDB(t)
	c := New(ds)

	lot := seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")
	require.NoError(t, ds.SaveShippingRecord(&datastore.ShippingRecord{
		LotID:          lot.ID,
		ShipmentDate:   "2026-01-15",
		ShipmentStatus: datastore.ShipmentShipped,
		CarrierInfo:    "FastFreight",
		Destination:    "Osaka DC",
	}))

	view, err := c.ConsolidateLot(lot.ID)
	require.NoError(t, err)

	assert.True(t, view.Summary.HasShippingRecord)
	assert.Equal(t, datastore.ShipmentShipped, view.Summary.ShipmentStatus)
	require.NotNil(t, view.ShippingRecord)
	assert.Equal(t, "FastFreight", view.ShippingRecord.CarrierInfo)
}

func TestConsolidateLotByNumberNormalizes(t *testing.T) {
	ds := setupTestDB(t)
	c := New(ds)

	lot := seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")

	view, err := c.ConsolidateLotByNumber("  lot 20260112 001 ")
	require.NoError(t, err)
	assert.Equal(t, lot.ID, view.LotID)

	_, err = c.ConsolidateLotByNumber("LOT-20260112-999")
	require.Error(t, err)
}

func TestConsolidateAllFiltersAndOrdering(t *testing.T) {
	ds := setupTestDB(t)
	c := New(ds)

	older := seedLot(t, ds, "LOT-20260110-001", "2026-01-10", "Line-A")
	newer := seedLot(t, ds, "LOT-20260115-001", "2026-01-15", "Line-A")
	seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-B")

	addProduction(t, ds, older, 10, time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC))

	views, err := c.ConsolidateAll(&datastore.LotFilter{ProductionLine: "Line-A"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].LotID, "newest production date first")
	assert.Equal(t, older.ID, views[1].LotID)
	assert.Equal(t, 10, views[1].Summary.TotalQuantityProduced)

	views, err = c.ConsolidateAll(nil)
	require.NoError(t, err)
	assert.Len(t, views, 3)
}
