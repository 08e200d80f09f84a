// model.go this code defines the data model for the application
package datastore

import "time"

// Validation statuses recorded on normalization audit entries.
const (
	ValidationValid     = "Valid"
	ValidationAmbiguous = "Ambiguous"
	ValidationUnmatched = "Unmatched"
)

// Resolution statuses for discrepancies. Open is the initial state.
const (
	ResolutionOpen     = "Open"
	ResolutionResolved = "Resolved"
	ResolutionReviewed = "Reviewed"
)

// Inspection statuses found in quality feeds.
const (
	InspectionPass = "Pass"
	InspectionFail = "Fail"
)

// Shipment statuses found in shipping feeds. NoShipmentRecord is the
// sentinel reported for lots with no shipping record at all.
const (
	ShipmentShipped    = "Shipped"
	ShipmentPending    = "Pending"
	ShipmentNotShipped = "Not Shipped"
	NoShipmentRecord   = "No Record"
)

// Sources a discrepancy can point at.
const (
	SourceLots       = "lots"
	SourceProduction = "production"
	SourceQuality    = "quality"
	SourceShipping   = "shipping"
)

// Lot is the central hub a business lot resolves to. The business lot
// number holds the canonical (normalized) identifier and is unique.
type Lot struct {
	ID                uint   `gorm:"primaryKey"`
	BusinessLotNumber string `gorm:"uniqueIndex;size:50;not null"`
	ProductionDate    string `gorm:"index:idx_lots_production_date;size:10;not null"` // YYYY-MM-DD
	ProductionLineID  uint   `gorm:"index;not null"`
	ProductionLine    ProductionLine
	IsNormalized      bool
	DataFlag          string `gorm:"size:50"`
	CreatedAt         time.Time

	ProductionRecords []ProductionRecord `gorm:"foreignKey:LotID;constraint:OnDelete:CASCADE"`
	QualityRecords    []QualityRecord    `gorm:"foreignKey:LotID;constraint:OnDelete:CASCADE"`
	ShippingRecords   []ShippingRecord   `gorm:"foreignKey:LotID;constraint:OnDelete:CASCADE"`
}

// ProductionLine is a reference table for production lines.
type ProductionLine struct {
	ID          uint   `gorm:"primaryKey"`
	LineName    string `gorm:"uniqueIndex;size:100;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
}

// DefectType is a reference table for defect categories.
type DefectType struct {
	ID          uint   `gorm:"primaryKey"`
	DefectName  string `gorm:"uniqueIndex;size:100;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
}

// ProductionRecord is a single row from a production log.
type ProductionRecord struct {
	ID               uint      `gorm:"primaryKey"`
	LotID            uint      `gorm:"index;not null"`
	ProductionLineID uint      `gorm:"index;not null"`
	ProductionDate   string    `gorm:"index:idx_production_records_date;size:10;not null"`
	RecordTimestamp  time.Time `gorm:"index;not null"`
	QuantityProduced int       `gorm:"not null"`
	Status           string    `gorm:"size:50;not null"`
	IssueDescription string    `gorm:"type:text"`
	CreatedAt        time.Time
}

// QualityRecord is a single quality inspection row.
type QualityRecord struct {
	ID               uint   `gorm:"primaryKey"`
	LotID            uint   `gorm:"index;not null"`
	InspectionDate   string `gorm:"index:idx_quality_records_date;size:10;not null"`
	DefectTypeID     uint   `gorm:"index;not null"`
	DefectType       DefectType
	DefectCount      int    `gorm:"not null"`
	InspectionStatus string `gorm:"size:20;not null"`
	Inspector        string `gorm:"size:100"`
	Notes            string `gorm:"type:text"`
	CreatedAt        time.Time
}

// ShippingRecord is a single shipping manifest row. A lot carries at most
// one authoritative record; extra rows are ignored at read time.
type ShippingRecord struct {
	ID             uint   `gorm:"primaryKey"`
	LotID          uint   `gorm:"index;not null"`
	ShipmentDate   string `gorm:"size:10"`
	ShipmentStatus string `gorm:"size:50;not null"`
	CarrierInfo    string `gorm:"size:100"`
	Destination    string `gorm:"size:255"`
	CreatedAt      time.Time
}

// NormalizationAudit is an append-only record of a single lot number
// normalization. Rows are never updated or deleted.
type NormalizationAudit struct {
	ID                  uint      `gorm:"primaryKey"`
	OriginalLotNumber   string    `gorm:"size:100;not null"`
	NormalizedLotNumber string    `gorm:"size:50"`
	ValidationStatus    string    `gorm:"size:20;index;not null"`
	FlagReason          string    `gorm:"type:text"`
	CreatedAt           time.Time `gorm:"index"`
}

// Discrepancy is a flagged cross-source inconsistency. ResolutionStatus is
// the only mutable field.
type Discrepancy struct {
	ID               uint      `gorm:"primaryKey"`
	LotID            uint      `gorm:"index"`
	MissingInSource  string    `gorm:"size:50;not null"`
	Description      string    `gorm:"type:text;not null"`
	ResolutionStatus string    `gorm:"size:20;index;not null;default:Open"`
	CreatedAt        time.Time `gorm:"index"`
}

// ImportRecord tracks a single file import run.
type ImportRecord struct {
	ID           uint   `gorm:"primaryKey"`
	BatchID      string `gorm:"size:36;index;not null"`
	SourceType   string `gorm:"size:50;not null"`
	FileName     string `gorm:"size:255;not null"`
	FileFormat   string `gorm:"size:10;not null"`
	ImportStatus string `gorm:"size:20;not null"`
	ImportedRows int
	FailedRows   int
	CreatedAt    time.Time
}

// LotFilter narrows a lot listing. Zero values mean "no constraint".
type LotFilter struct {
	ProductionLine string // case-insensitive line name
	DateFrom       string // inclusive YYYY-MM-DD
	DateTo         string // inclusive YYYY-MM-DD
	ShipmentStatus string // exact shipment status on an existing record
	Limit          int
	Offset         int
}

// LineIssueSummary aggregates production issues for one line.
type LineIssueSummary struct {
	ProductionLine string `json:"production_line"`
	TotalRecords   int64  `json:"total_records"`
	IssueCount     int64  `json:"issue_count"`
	AffectedLots   int64  `json:"affected_lots"`
	TotalQuantity  int64  `json:"total_quantity"`
}

// DefectTrendPoint is one defect type's counts for one day.
type DefectTrendPoint struct {
	DefectType       string `json:"defect_type"`
	Date             string `json:"date"`
	DefectCount      int64  `json:"defect_count"`
	InspectionEvents int64  `json:"inspection_events"`
}

// DefectTypeSummary aggregates defects over the whole corpus.
type DefectTypeSummary struct {
	DefectType   string `json:"defect_type"`
	TotalCount   int64  `json:"total_count"`
	AffectedLots int64  `json:"affected_lots"`
}
