// audit.go: append-only normalization audit trail
package datastore

// SaveNormalizationAudit appends one normalization outcome. Audit rows are
// never updated or deleted.
func (ds *DataStore) SaveNormalizationAudit(audit *NormalizationAudit) error {
	if audit.OriginalLotNumber == "" && audit.NormalizedLotNumber == "" {
		return validationError("audit entry has no lot number", "original_lot_number", "")
	}
	if err := ds.DB.Create(audit).Error; err != nil {
		return dbError(err, "save_normalization_audit", "",
			"original", audit.OriginalLotNumber,
			"status", audit.ValidationStatus)
	}
	return nil
}

// FlaggedNormalizations returns audit entries whose validation status is not
// Valid, newest first.
func (ds *DataStore) FlaggedNormalizations() ([]NormalizationAudit, error) {
	var audits []NormalizationAudit
	err := ds.DB.Where("validation_status <> ?", ValidationValid).
		Order("created_at DESC, id DESC").
		Find(&audits).Error
	if err != nil {
		return nil, dbError(err, "flagged_normalizations", "")
	}
	return audits, nil
}
