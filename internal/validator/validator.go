// Package validator runs cross-source consistency checks over the full
// record corpus: orphaned child records, lots missing a source dimension,
// and flagged lot identifiers. Findings are durably recorded as
// discrepancies for review.
package validator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/logging"
)

// Report summarizes one validation run.
type Report struct {
	Valid              bool           `json:"valid"`
	TotalDiscrepancies int            `json:"total_discrepancies"`
	ChecksPerformed    map[string]int `json:"checks_performed"`
	Errors             []string       `json:"errors,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
}

// Validator runs the consistency checks.
type Validator struct {
	ds  datastore.Interface
	log *slog.Logger
}

// New returns a validator backed by the given datastore.
func New(ds datastore.Interface) *Validator {
	log := logging.ForService("validator")
	if log == nil {
		log = slog.Default().With("service", "validator")
	}
	return &Validator{ds: ds, log: log}
}

// ValidateAll runs every consistency check and records findings as
// discrepancies. The checks are independent: one check failing to read or
// write does not stop its siblings, it only lands in the report's Errors.
func (v *Validator) ValidateAll() Report {
	report := Report{
		Valid:           true,
		ChecksPerformed: make(map[string]int),
		Timestamp:       time.Now(),
	}

	checks := []struct {
		name string
		run  func() (int, error)
	}{
		{"orphaned_production", v.checkOrphanedProduction},
		{"orphaned_quality", v.checkOrphanedQuality},
		{"orphaned_shipping", v.checkOrphanedShipping},
		{"unmatched_lot_ids", v.checkFlaggedIdentifiers},
		{"incomplete_lots", v.checkIncompleteLots},
	}

	for _, check := range checks {
		count, err := check.run()
		if err != nil {
			v.log.Error("Validation check failed", "check", check.name, "error", err)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", check.name, err))
			report.Valid = false
			continue
		}
		report.ChecksPerformed[check.name] = count
		report.TotalDiscrepancies += count
	}

	if report.TotalDiscrepancies > 0 {
		report.Valid = false
	}

	v.log.Info("Validation complete",
		"total_discrepancies", report.TotalDiscrepancies,
		"valid", report.Valid)
	return report
}

func (v *Validator) checkOrphanedProduction() (int, error) {
	orphans, err := v.ds.OrphanedProductionRecords()
	if err != nil {
		return 0, err
	}
	for i := range orphans {
		if err := v.ds.RecordDiscrepancy(&datastore.Discrepancy{
			LotID:           orphans[i].LotID,
			MissingInSource: datastore.SourceLots,
			Description:     fmt.Sprintf("Production record %d references non-existent lot", orphans[i].ID),
		}); err != nil {
			return 0, err
		}
	}
	return len(orphans), nil
}

func (v *Validator) checkOrphanedQuality() (int, error) {
	orphans, err := v.ds.OrphanedQualityRecords()
	if err != nil {
		return 0, err
	}
	for i := range orphans {
		if err := v.ds.RecordDiscrepancy(&datastore.Discrepancy{
			LotID:           orphans[i].LotID,
			MissingInSource: datastore.SourceLots,
			Description:     fmt.Sprintf("Quality record %d references non-existent lot", orphans[i].ID),
		}); err != nil {
			return 0, err
		}
	}
	return len(orphans), nil
}

func (v *Validator) checkOrphanedShipping() (int, error) {
	orphans, err := v.ds.OrphanedShippingRecords()
	if err != nil {
		return 0, err
	}
	for i := range orphans {
		if err := v.ds.RecordDiscrepancy(&datastore.Discrepancy{
			LotID:           orphans[i].LotID,
			MissingInSource: datastore.SourceLots,
			Description:     fmt.Sprintf("Shipping record %d references non-existent lot", orphans[i].ID),
		}); err != nil {
			return 0, err
		}
	}
	return len(orphans), nil
}

// checkFlaggedIdentifiers surfaces Ambiguous and Unmatched audit rows for
// manual review. They are counted, not rewritten.
func (v *Validator) checkFlaggedIdentifiers() (int, error) {
	flagged, err := v.ds.FlaggedNormalizations()
	if err != nil {
		return 0, err
	}
	return len(flagged), nil
}

// checkIncompleteLots records one discrepancy per missing source dimension.
// A lot missing two dimensions yields two discrepancies.
func (v *Validator) checkIncompleteLots() (int, error) {
	total := 0

	dimensions := []struct {
		source      string
		description string
		find        func() ([]datastore.Lot, error)
	}{
		{datastore.SourceProduction, "Lot has no production records", v.ds.LotsMissingProduction},
		{datastore.SourceQuality, "Lot has no quality inspection records", v.ds.LotsMissingQuality},
		{datastore.SourceShipping, "Lot has no shipping record", v.ds.LotsMissingShipping},
	}

	for _, dim := range dimensions {
		lots, err := dim.find()
		if err != nil {
			return 0, err
		}
		for i := range lots {
			if err := v.ds.RecordDiscrepancy(&datastore.Discrepancy{
				LotID:           lots[i].ID,
				MissingInSource: dim.source,
				Description:     dim.description,
			}); err != nil {
				return 0, err
			}
		}
		total += len(lots)
	}
	return total, nil
}

// GetDiscrepancies returns open findings for review, newest first.
func (v *Validator) GetDiscrepancies(limit int) ([]datastore.Discrepancy, error) {
	return v.ds.OpenDiscrepancies(limit)
}

// ResolveDiscrepancy moves a finding out of the Open state.
func (v *Validator) ResolveDiscrepancy(id uint, status string) error {
	if err := v.ds.ResolveDiscrepancy(id, status); err != nil {
		return err
	}
	v.log.Info("Discrepancy resolved", "discrepancy_id", id, "status", status)
	return nil
}
