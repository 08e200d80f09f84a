// records.go: source record persistence and per-lot consolidation queries
package datastore

import (
	"github.com/mkarvon/lotline/internal/errors"
	"gorm.io/gorm"
)

// SaveProductionRecord stores a production event for a lot.
func (ds *DataStore) SaveProductionRecord(record *ProductionRecord) error {
	if record.LotID == 0 {
		return validationError("production record has no lot", "lot_id", "0")
	}
	if err := ds.DB.Create(record).Error; err != nil {
		return dbError(err, "save_production_record", "", "lot_id", record.LotID)
	}
	return nil
}

// SaveQualityRecord stores a quality inspection for a lot.
func (ds *DataStore) SaveQualityRecord(record *QualityRecord) error {
	if record.LotID == 0 {
		return validationError("quality record has no lot", "lot_id", "0")
	}
	if err := ds.DB.Create(record).Error; err != nil {
		return dbError(err, "save_quality_record", "", "lot_id", record.LotID)
	}
	return nil
}

// SaveShippingRecord stores a shipment for a lot.
func (ds *DataStore) SaveShippingRecord(record *ShippingRecord) error {
	if record.LotID == 0 {
		return validationError("shipping record has no lot", "lot_id", "0")
	}
	if err := ds.DB.Create(record).Error; err != nil {
		return dbError(err, "save_shipping_record", "", "lot_id", record.LotID)
	}
	return nil
}

// ProductionRecordsForLot returns a lot's production events, newest first.
func (ds *DataStore) ProductionRecordsForLot(lotID uint) ([]ProductionRecord, error) {
	var records []ProductionRecord
	err := ds.DB.Where("lot_id = ?", lotID).
		Order("record_timestamp DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "production_records_for_lot", "", "lot_id", lotID)
	}
	return records, nil
}

// QualityRecordsForLot returns a lot's inspections, newest first.
func (ds *DataStore) QualityRecordsForLot(lotID uint) ([]QualityRecord, error) {
	var records []QualityRecord
	err := ds.DB.Preload("DefectType").
		Where("lot_id = ?", lotID).
		Order("inspection_date DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "quality_records_for_lot", "", "lot_id", lotID)
	}
	return records, nil
}

// ShippingRecordForLot returns the lot's effective shipment: the most recent
// shipment date wins, ties broken by lowest record id. Returns nil without
// error when the lot has no shipping record at all.
func (ds *DataStore) ShippingRecordForLot(lotID uint) (*ShippingRecord, error) {
	var record ShippingRecord
	err := ds.DB.Where("lot_id = ?", lotID).
		Order("shipment_date DESC, id ASC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError(err, "shipping_record_for_lot", "", "lot_id", lotID)
	}
	return &record, nil
}

// OrphanedProductionRecords returns production records whose lot row is gone.
func (ds *DataStore) OrphanedProductionRecords() ([]ProductionRecord, error) {
	var records []ProductionRecord
	err := ds.DB.
		Where("NOT EXISTS (SELECT 1 FROM lots WHERE lots.id = production_records.lot_id)").
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "orphaned_production_records", "")
	}
	return records, nil
}

// OrphanedQualityRecords returns quality records whose lot row is gone.
func (ds *DataStore) OrphanedQualityRecords() ([]QualityRecord, error) {
	var records []QualityRecord
	err := ds.DB.
		Where("NOT EXISTS (SELECT 1 FROM lots WHERE lots.id = quality_records.lot_id)").
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "orphaned_quality_records", "")
	}
	return records, nil
}

// OrphanedShippingRecords returns shipping records whose lot row is gone.
func (ds *DataStore) OrphanedShippingRecords() ([]ShippingRecord, error) {
	var records []ShippingRecord
	err := ds.DB.
		Where("NOT EXISTS (SELECT 1 FROM lots WHERE lots.id = shipping_records.lot_id)").
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "orphaned_shipping_records", "")
	}
	return records, nil
}

// LotsMissingProduction returns lots with no production record.
func (ds *DataStore) LotsMissingProduction() ([]Lot, error) {
	return ds.lotsMissingChild("production_records", "lots_missing_production")
}

// LotsMissingQuality returns lots with no quality record.
func (ds *DataStore) LotsMissingQuality() ([]Lot, error) {
	return ds.lotsMissingChild("quality_records", "lots_missing_quality")
}

// LotsMissingShipping returns lots with no shipping record.
func (ds *DataStore) LotsMissingShipping() ([]Lot, error) {
	return ds.lotsMissingChild("shipping_records", "lots_missing_shipping")
}

func (ds *DataStore) lotsMissingChild(childTable, operation string) ([]Lot, error) {
	var lots []Lot
	err := ds.DB.
		Where("NOT EXISTS (SELECT 1 FROM " + childTable + " WHERE " + childTable + ".lot_id = lots.id)").
		Order("id").
		Find(&lots).Error
	if err != nil {
		return nil, dbError(err, operation, "")
	}
	return lots, nil
}
