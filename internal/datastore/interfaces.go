// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"github.com/mkarvon/lotline/internal/conf"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// persistence operations the reconciliation engine depends on.
type Interface interface {
	Open() error
	Close() error

	// lot master data
	CreateLot(lot *Lot) error
	GetLot(id uint) (Lot, error)
	GetLotByNumber(businessNumber string) (Lot, error)
	GetAllLots() ([]Lot, error)
	SearchLots(filter *LotFilter) ([]Lot, error)
	DeleteLot(id uint) error

	// reference data
	GetOrCreateProductionLine(name string) (ProductionLine, error)
	GetProductionLine(id uint) (ProductionLine, error)
	GetOrCreateDefectType(name string) (DefectType, error)

	// child records
	SaveProductionRecord(rec *ProductionRecord) error
	SaveQualityRecord(rec *QualityRecord) error
	SaveShippingRecord(rec *ShippingRecord) error
	ProductionRecordsForLot(lotID uint) ([]ProductionRecord, error)
	QualityRecordsForLot(lotID uint) ([]QualityRecord, error)
	ShippingRecordForLot(lotID uint) (*ShippingRecord, error)

	// consistency queries
	OrphanedProductionRecords() ([]ProductionRecord, error)
	OrphanedQualityRecords() ([]QualityRecord, error)
	OrphanedShippingRecords() ([]ShippingRecord, error)
	LotsMissingProduction() ([]Lot, error)
	LotsMissingQuality() ([]Lot, error)
	LotsMissingShipping() ([]Lot, error)

	// normalization audit trail
	SaveNormalizationAudit(entry *NormalizationAudit) error
	FlaggedNormalizations() ([]NormalizationAudit, error)

	// discrepancies
	RecordDiscrepancy(d *Discrepancy) error
	OpenDiscrepancies(limit int) ([]Discrepancy, error)
	ResolveDiscrepancy(id uint, status string) error

	// import tracking
	SaveImportRecord(rec *ImportRecord) error

	// reporting aggregates
	ProductionLineIssues(dateFrom, dateTo string) ([]LineIssueSummary, error)
	DefectTrends(sinceDate string) ([]DefectTrendPoint, error)
	DefectSummary() ([]DefectTypeSummary, error)
	ShipmentStatusCounts() (map[string]int64, error)
	CountLotsWithoutShipping() (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}
