package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mkarvon/lotline/internal/datastore"
)

func setupAuditStore(t *testing.T) *datastore.SQLiteStore {
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

	require.NoError(t, db.AutoMigrate(&datastore.NormalizationAudit{}))
	return &datastore.SQLiteStore{DataStore: datastore.DataStore{DB: db}}
}

func TestRecordNormalization(t *testing.T) {
	ds := setupAuditStore(t)
	auditor := NewAuditor(ds)

	ok := auditor.RecordNormalization(
		"  lot 20260112 001 ", "LOT-20260112-001", datastore.ValidationValid, "")
	assert.True(t, ok)

	ok = auditor.RecordNormalization(
		"??", "", datastore.ValidationAmbiguous, "Empty or None Lot ID")
	assert.True(t, ok)

	flagged, err := ds.FlaggedNormalizations()
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "??", flagged[0].OriginalLotNumber)
}

func TestRecordNormalizationBestEffort(t *testing.T) {
	ds := setupAuditStore(t)
	auditor := NewAuditor(ds)

	// Close the database underneath the auditor; the failure must be
	// swallowed, not panicked or propagated
	sqlDB, err := ds.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ok := auditor.RecordNormalization(
		"LOT-20260112-001", "LOT-20260112-001", datastore.ValidationValid, "")
	assert.False(t, ok)
}
