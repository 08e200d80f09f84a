// discrepancy.go: validation finding lifecycle
package datastore

import (
	"github.com/mkarvon/lotline/internal/errors"
	"gorm.io/gorm"
)

// RecordDiscrepancy stores a finding unless an identical one already exists.
// Identity is the (lot, missing source, description) triple, so re-running
// validation does not multiply open findings.
func (ds *DataStore) RecordDiscrepancy(disc *Discrepancy) error {
	if disc.Description == "" {
		return validationError("discrepancy has no description", "description", "")
	}

	var existing Discrepancy
	err := ds.DB.Where(
		"lot_id = ? AND missing_in_source = ? AND description = ?",
		disc.LotID, disc.MissingInSource, disc.Description,
	).First(&existing).Error
	if err == nil {
		disc.ID = existing.ID
		disc.ResolutionStatus = existing.ResolutionStatus
		disc.CreatedAt = existing.CreatedAt
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dbError(err, "check_discrepancy", "", "lot_id", disc.LotID)
	}

	if disc.ResolutionStatus == "" {
		disc.ResolutionStatus = ResolutionOpen
	}
	if err := ds.DB.Create(disc).Error; err != nil {
		return dbError(err, "record_discrepancy", "", "lot_id", disc.LotID)
	}
	return nil
}

// OpenDiscrepancies returns unresolved findings, newest first. A limit of
// zero or less returns all of them.
func (ds *DataStore) OpenDiscrepancies(limit int) ([]Discrepancy, error) {
	query := ds.DB.Where("resolution_status = ?", ResolutionOpen).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var discrepancies []Discrepancy
	if err := query.Find(&discrepancies).Error; err != nil {
		return nil, dbError(err, "open_discrepancies", "")
	}
	return discrepancies, nil
}

// ResolveDiscrepancy moves a finding to Resolved or Reviewed.
func (ds *DataStore) ResolveDiscrepancy(id uint, status string) error {
	if status != ResolutionResolved && status != ResolutionReviewed {
		return validationError("unknown resolution status", "resolution_status", status)
	}

	result := ds.DB.Model(&Discrepancy{}).
		Where("id = ?", id).
		Update("resolution_status", status)
	if result.Error != nil {
		return dbError(result.Error, "resolve_discrepancy", "", "discrepancy_id", id)
	}
	if result.RowsAffected == 0 {
		return notFoundError("discrepancy", id)
	}
	return nil
}
