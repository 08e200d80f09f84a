// lots.go: lot master data and reference table operations
package datastore

import (
	"github.com/mkarvon/lotline/internal/errors"
	"gorm.io/gorm"
)

// defaultSearchLimit caps unbounded lot listings.
const defaultSearchLimit = 1000

// IsDuplicateKey reports whether err is a uniqueness-constraint conflict.
// Callers racing on lot creation use this to fall back to a re-read.
func IsDuplicateKey(err error) bool {
	return errors.IsCategory(err, errors.CategoryConflict)
}

// CreateLot inserts a new lot. A uniqueness violation on the business lot
// number is returned as a conflict error, not a generic database error.
func (ds *DataStore) CreateLot(lot *Lot) error {
	if lot.BusinessLotNumber == "" {
		return validationError("business lot number is empty", "business_lot_number", "")
	}

	if err := ds.DB.Create(lot).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflictError(err, "create_lot", "canonical_key", lot.BusinessLotNumber)
		}
		return dbError(err, "create_lot", "", "canonical_key", lot.BusinessLotNumber)
	}
	return nil
}

// GetLot retrieves a lot by its internal id.
func (ds *DataStore) GetLot(id uint) (Lot, error) {
	var lot Lot
	err := ds.DB.Preload("ProductionLine").First(&lot, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Lot{}, notFoundError("lot", id)
		}
		return Lot{}, dbError(err, "get_lot", "", "lot_id", id)
	}
	return lot, nil
}

// GetLotByNumber retrieves a lot by its canonical business lot number.
func (ds *DataStore) GetLotByNumber(businessNumber string) (Lot, error) {
	var lot Lot
	err := ds.DB.Preload("ProductionLine").
		Where("business_lot_number = ?", businessNumber).
		First(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Lot{}, notFoundError("lot", businessNumber)
		}
		return Lot{}, dbError(err, "get_lot_by_number", "", "canonical_key", businessNumber)
	}
	return lot, nil
}

// GetAllLots returns every lot, ordered by internal id.
func (ds *DataStore) GetAllLots() ([]Lot, error) {
	var lots []Lot
	if err := ds.DB.Preload("ProductionLine").Order("id").Find(&lots).Error; err != nil {
		return nil, dbError(err, "get_all_lots", "")
	}
	return lots, nil
}

// SearchLots returns lots matching the filter, newest production date first.
func (ds *DataStore) SearchLots(filter *LotFilter) ([]Lot, error) {
	query := ds.DB.Model(&Lot{}).Preload("ProductionLine")

	if filter != nil {
		if filter.ProductionLine != "" {
			query = query.
				Joins("JOIN production_lines ON production_lines.id = lots.production_line_id").
				Where("LOWER(production_lines.line_name) = LOWER(?)", filter.ProductionLine)
		}
		if filter.DateFrom != "" {
			query = query.Where("lots.production_date >= ?", filter.DateFrom)
		}
		if filter.DateTo != "" {
			query = query.Where("lots.production_date <= ?", filter.DateTo)
		}
		if filter.ShipmentStatus != "" {
			query = query.Where(
				"EXISTS (SELECT 1 FROM shipping_records WHERE shipping_records.lot_id = lots.id AND shipping_records.shipment_status = ?)",
				filter.ShipmentStatus)
		}
	}

	limit := defaultSearchLimit
	offset := 0
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}

	var lots []Lot
	err := query.Order("lots.production_date DESC, lots.id DESC").
		Limit(limit).Offset(offset).
		Find(&lots).Error
	if err != nil {
		return nil, dbError(err, "search_lots", "")
	}
	return lots, nil
}

// DeleteLot removes a lot and all of its child records.
func (ds *DataStore) DeleteLot(id uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lot_id = ?", id).Delete(&ProductionRecord{}).Error; err != nil {
			return dbError(err, "delete_lot_production", "", "lot_id", id)
		}
		if err := tx.Where("lot_id = ?", id).Delete(&QualityRecord{}).Error; err != nil {
			return dbError(err, "delete_lot_quality", "", "lot_id", id)
		}
		if err := tx.Where("lot_id = ?", id).Delete(&ShippingRecord{}).Error; err != nil {
			return dbError(err, "delete_lot_shipping", "", "lot_id", id)
		}
		if err := tx.Delete(&Lot{}, id).Error; err != nil {
			return dbError(err, "delete_lot", "", "lot_id", id)
		}
		return nil
	})
}

// GetOrCreateProductionLine finds a production line by case-insensitive name,
// creating it if unseen.
func (ds *DataStore) GetOrCreateProductionLine(name string) (ProductionLine, error) {
	if name == "" {
		return ProductionLine{}, validationError("production line name is empty", "line_name", "")
	}

	var line ProductionLine
	err := ds.DB.Where("LOWER(line_name) = LOWER(?)", name).First(&line).Error
	if err == nil {
		return line, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ProductionLine{}, dbError(err, "get_production_line", "", "line_name", name)
	}

	line = ProductionLine{LineName: name}
	if err := ds.DB.Create(&line).Error; err != nil {
		// Lost a create race, the row exists now
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := ds.DB.Where("LOWER(line_name) = LOWER(?)", name).First(&line).Error; err != nil {
				return ProductionLine{}, dbError(err, "reread_production_line", "", "line_name", name)
			}
			return line, nil
		}
		return ProductionLine{}, dbError(err, "create_production_line", "", "line_name", name)
	}
	return line, nil
}

// GetProductionLine retrieves a production line by id.
func (ds *DataStore) GetProductionLine(id uint) (ProductionLine, error) {
	var line ProductionLine
	err := ds.DB.First(&line, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductionLine{}, notFoundError("production line", id)
		}
		return ProductionLine{}, dbError(err, "get_production_line", "", "line_id", id)
	}
	return line, nil
}

// GetOrCreateDefectType finds a defect type by case-insensitive name,
// creating it if unseen.
func (ds *DataStore) GetOrCreateDefectType(name string) (DefectType, error) {
	if name == "" {
		return DefectType{}, validationError("defect type name is empty", "defect_name", "")
	}

	var defect DefectType
	err := ds.DB.Where("LOWER(defect_name) = LOWER(?)", name).First(&defect).Error
	if err == nil {
		return defect, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DefectType{}, dbError(err, "get_defect_type", "", "defect_name", name)
	}

	defect = DefectType{DefectName: name}
	if err := ds.DB.Create(&defect).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := ds.DB.Where("LOWER(defect_name) = LOWER(?)", name).First(&defect).Error; err != nil {
				return DefectType{}, dbError(err, "reread_defect_type", "", "defect_name", name)
			}
			return defect, nil
		}
		return DefectType{}, dbError(err, "create_defect_type", "", "defect_name", name)
	}
	return defect, nil
}
