package matcher

import (
	"testing"

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
		&datastore.Lot{},
		&datastore.NormalizationAudit{},
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
		IsNormalized:      true,
	}
	require.NoError(t, ds.CreateLot(&lot))
	return lot
}

func TestBuildIndex(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")
	seedLot(t, ds, "LOT-20260113-001", "2026-01-13", "Line-A")

	ix, err := m.BuildIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	assert.False(t, ix.TakenAt.IsZero())

	lot, ok := ix.Lookup("LOT-20260112-001")
	require.True(t, ok)
	assert.Equal(t, "2026-01-12", lot.ProductionDate)
}

func TestBuildIndexIsSnapshot(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")

	ix, err := m.BuildIndex()
	require.NoError(t, err)
	require.Equal(t, 1, ix.Len())

	// A lot created after the snapshot is invisible until rebuild
	seedLot(t, ds, "LOT-20260113-001", "2026-01-13", "Line-A")
	assert.Equal(t, 1, ix.Len())
	assert.Nil(t, m.FindMatchingLot("LOT-20260113-001", "", ix))

	ix, err = m.BuildIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
}

func TestFindMatchingLotPrimary(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	want := seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")

	ix, err := m.BuildIndex()
	require.NoError(t, err)

	// Raw spelling differences resolve through normalization
	got := m.FindMatchingLot("  lot 20260112 001 ", "", ix)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)

	assert.Nil(t, m.FindMatchingLot("LOT-20260112-999", "", ix))
}

func TestFindMatchingLotSecondary(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	// After stripping dashes and the year, both reduce to "0112001"
	want := seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")
	wrongDate := seedLot(t, ds, "LOT-20260112-002", "2026-01-13", "Line-A")

	ix, err := m.BuildIndex()
	require.NoError(t, err)

	got := m.FindMatchingLot("LOT20260112001", "2026-01-12", ix)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)

	// Secondary match never fires without a production date
	assert.Nil(t, m.FindMatchingLot("LOT20260112001X", "", ix))

	// Candidates on a different date are ignored
	assert.Nil(t, m.FindMatchingLot("LOT20260112002", "2026-01-12", ix))
	_ = wrongDate
}

func TestFindMatchingLotSecondaryRemainderMismatch(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	seedLot(t, ds, "LOT-20260112-001", "2026-01-12", "Line-A")

	ix, err := m.BuildIndex()
	require.NoError(t, err)

	// "20260112SHIP" reduces to "0112SHIP", the candidate to "LOT0112001"
	assert.Nil(t, m.FindMatchingLot("20260112SHIP", "2026-01-12", ix))
}

func TestFindMatchingLotSecondaryFirstWins(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	// Both candidates share the date and the reduced form of the query
	first := seedLot(t, ds, "LOT-20260112-007", "2026-01-12", "Line-A")
	seedLot(t, ds, "LOT2026-0112007", "2026-01-12", "Line-A")

	ix, err := m.BuildIndex()
	require.NoError(t, err)

	got := m.FindMatchingLot("LOT-0112-007", "2026-01-12", ix)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID, "lowest lot id is indexed first and wins the tie")
}

func TestGetOrCreateIdempotent(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	created, err := m.GetOrCreate("  LOT 20260112 001 ", "2026-01-12", "Line-A")
	require.NoError(t, err)
	assert.Equal(t, "LOT-20260112-001", created.BusinessLotNumber)
	assert.True(t, created.IsNormalized)

	// A different spelling of the same identifier resolves to the same lot
	again, err := m.GetOrCreate("lot-20260112-001", "2026-01-12", "Line-A")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	lots, err := ds.GetAllLots()
	require.NoError(t, err)
	assert.Len(t, lots, 1, "no duplicate lot created")

	// Both calls leave their own audit entry
	var audits []datastore.NormalizationAudit
	require.NoError(t, ds.DB.Find(&audits).Error)
	assert.Len(t, audits, 2)
	for _, audit := range audits {
		assert.Equal(t, datastore.ValidationValid, audit.ValidationStatus)
		assert.Equal(t, "LOT-20260112-001", audit.NormalizedLotNumber)
	}
}

func TestGetOrCreateFlagsAmbiguousIdentifier(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	// A dashed numeric identifier with fewer than twelve digits still
	// resolves to a lot, but its audit entry carries the Ambiguous flag
	lot, err := m.GetOrCreate("1234-5678-90", "2026-01-12", "Line-A")
	require.NoError(t, err)
	assert.Equal(t, "1234-5678-90", lot.BusinessLotNumber)

	flagged, err := ds.FlaggedNormalizations()
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, datastore.ValidationAmbiguous, flagged[0].ValidationStatus)
	assert.Equal(t, "Ambiguous numeric-only ID without date/line context", flagged[0].FlagReason)

	// Resolving the same identifier again flags it again
	_, err = m.GetOrCreate("1234-5678-90", "2026-01-12", "Line-A")
	require.NoError(t, err)
	flagged, err = ds.FlaggedNormalizations()
	require.NoError(t, err)
	assert.Len(t, flagged, 2)
}

func TestGetOrCreateEmptyIdentifier(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	_, err := m.GetOrCreate("   ", "2026-01-12", "Line-A")
	require.Error(t, err)
}

func TestGetOrCreateCreatesProductionLine(t *testing.T) {
	ds := setupTestDB(t)
	m := New(ds)

	lot, err := m.GetOrCreate("LOT-20260112-001", "2026-01-12", "Line-New")
	require.NoError(t, err)

	line, err := ds.GetProductionLine(lot.ProductionLineID)
	require.NoError(t, err)
	assert.Equal(t, "Line-New", line.LineName)
}
