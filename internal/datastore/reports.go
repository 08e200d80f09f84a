// reports.go: cross-lot aggregation queries backing the reporter
package datastore

// ProductionLineIssues aggregates production activity and issues per line
// for the inclusive date range. Empty bounds leave that side open.
func (ds *DataStore) ProductionLineIssues(dateFrom, dateTo string) ([]LineIssueSummary, error) {
	query := ds.DB.Table("production_records").
		Select(`production_lines.line_name AS production_line,
			COUNT(production_records.id) AS total_records,
			SUM(CASE WHEN production_records.issue_description <> '' THEN 1 ELSE 0 END) AS issue_count,
			COUNT(DISTINCT CASE WHEN production_records.issue_description <> '' THEN production_records.lot_id END) AS affected_lots,
			COALESCE(SUM(production_records.quantity_produced), 0) AS total_quantity`).
		Joins("JOIN production_lines ON production_lines.id = production_records.production_line_id")

	if dateFrom != "" {
		query = query.Where("production_records.production_date >= ?", dateFrom)
	}
	if dateTo != "" {
		query = query.Where("production_records.production_date <= ?", dateTo)
	}

	var summaries []LineIssueSummary
	err := query.Group("production_lines.line_name").
		Order("issue_count DESC, production_lines.line_name").
		Scan(&summaries).Error
	if err != nil {
		return nil, dbError(err, "production_line_issues", "",
			"date_from", dateFrom, "date_to", dateTo)
	}
	return summaries, nil
}

// DefectTrends returns daily defect counts per defect type since the given
// date. An empty date covers all inspections.
func (ds *DataStore) DefectTrends(sinceDate string) ([]DefectTrendPoint, error) {
	query := ds.DB.Table("quality_records").
		Select(`defect_types.defect_name AS defect_type,
			quality_records.inspection_date AS date,
			COALESCE(SUM(quality_records.defect_count), 0) AS defect_count,
			COUNT(quality_records.id) AS inspection_events`).
		Joins("JOIN defect_types ON defect_types.id = quality_records.defect_type_id")

	if sinceDate != "" {
		query = query.Where("quality_records.inspection_date >= ?", sinceDate)
	}

	var points []DefectTrendPoint
	err := query.Group("defect_types.defect_name, quality_records.inspection_date").
		Order("quality_records.inspection_date, defect_types.defect_name").
		Scan(&points).Error
	if err != nil {
		return nil, dbError(err, "defect_trends", "", "since_date", sinceDate)
	}
	return points, nil
}

// DefectSummary aggregates defects per defect type over all inspections.
func (ds *DataStore) DefectSummary() ([]DefectTypeSummary, error) {
	var summaries []DefectTypeSummary
	err := ds.DB.Table("quality_records").
		Select(`defect_types.defect_name AS defect_type,
			COALESCE(SUM(quality_records.defect_count), 0) AS total_count,
			COUNT(DISTINCT quality_records.lot_id) AS affected_lots`).
		Joins("JOIN defect_types ON defect_types.id = quality_records.defect_type_id").
		Group("defect_types.defect_name").
		Order("total_count DESC, defect_types.defect_name").
		Scan(&summaries).Error
	if err != nil {
		return nil, dbError(err, "defect_summary", "")
	}
	return summaries, nil
}

// ShipmentStatusCounts returns lot counts per effective shipment status.
// Only each lot's authoritative record counts, using the same ordering as
// ShippingRecordForLot.
func (ds *DataStore) ShipmentStatusCounts() (map[string]int64, error) {
	type statusCount struct {
		ShipmentStatus string
		Lots           int64
	}

	var rows []statusCount
	err := ds.DB.Raw(`
		SELECT sr.shipment_status, COUNT(*) AS lots
		FROM shipping_records sr
		WHERE sr.id = (
			SELECT s2.id FROM shipping_records s2
			WHERE s2.lot_id = sr.lot_id
			ORDER BY s2.shipment_date DESC, s2.id ASC
			LIMIT 1
		)
		GROUP BY sr.shipment_status`).Scan(&rows).Error
	if err != nil {
		return nil, dbError(err, "shipment_status_counts", "")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ShipmentStatus] = row.Lots
	}
	return counts, nil
}

// CountLotsWithoutShipping counts lots carrying no shipping record.
func (ds *DataStore) CountLotsWithoutShipping() (int64, error) {
	var count int64
	err := ds.DB.Model(&Lot{}).
		Where("NOT EXISTS (SELECT 1 FROM shipping_records WHERE shipping_records.lot_id = lots.id)").
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count_lots_without_shipping", "")
	}
	return count, nil
}

// SaveImportRecord stores the outcome of one file import run.
func (ds *DataStore) SaveImportRecord(record *ImportRecord) error {
	if record.BatchID == "" {
		return validationError("import record has no batch id", "batch_id", "")
	}
	if err := ds.DB.Create(record).Error; err != nil {
		return dbError(err, "save_import_record", "", "batch_id", record.BatchID)
	}
	return nil
}
