// Package consolidator computes the unified per-lot view joining
// production, quality, and shipping data with derived summary statistics.
// The consolidated record is a read-view, computed per request and never
// persisted.
package consolidator

import (
	"log/slog"

	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/errors"
	"github.com/mkarvon/lotline/internal/logging"
	"github.com/mkarvon/lotline/internal/normalizer"
)

// Summary holds the derived statistics for one consolidated lot.
type Summary struct {
	TotalProductionRecords int    `json:"total_production_records"`
	TotalQualityRecords    int    `json:"total_quality_records"`
	TotalDefects           int    `json:"total_defects"`
	TotalQuantityProduced  int    `json:"total_quantity_produced"`
	PassCount              int    `json:"pass_count"`
	FailCount              int    `json:"fail_count"`
	HasShippingRecord      bool   `json:"has_shipping_record"`
	ShipmentStatus         string `json:"shipment_status"`
}

// ConsolidatedLot is the unified view of one lot across all three feeds.
type ConsolidatedLot struct {
	LotID             uint                         `json:"lot_id"`
	LotNumber         string                       `json:"lot_number"`
	ProductionDate    string                       `json:"production_date"`
	ProductionLine    string                       `json:"production_line"`
	ProductionRecords []datastore.ProductionRecord `json:"production_records"`
	QualityRecords    []datastore.QualityRecord    `json:"quality_records"`
	ShippingRecord    *datastore.ShippingRecord    `json:"shipping_record,omitempty"`
	Summary           Summary                      `json:"summary"`
}

// Consolidator builds consolidated lot views from the datastore.
type Consolidator struct {
	ds  datastore.Interface
	log *slog.Logger
}

// New returns a consolidator backed by the given datastore.
func New(ds datastore.Interface) *Consolidator {
	log := logging.ForService("consolidator")
	if log == nil {
		log = slog.Default().With("service", "consolidator")
	}
	return &Consolidator{ds: ds, log: log}
}

// ConsolidateLot builds the unified view for one lot by internal id.
func (c *Consolidator) ConsolidateLot(lotID uint) (*ConsolidatedLot, error) {
	lot, err := c.ds.GetLot(lotID)
	if err != nil {
		return nil, err
	}
	return c.consolidate(lot)
}

// ConsolidateLotByNumber builds the unified view for one lot addressed by
// its business lot number. The number is normalized before lookup, so any
// raw feed spelling works.
func (c *Consolidator) ConsolidateLotByNumber(lotNumber string) (*ConsolidatedLot, error) {
	lot, err := c.ds.GetLotByNumber(normalizer.Normalize(lotNumber))
	if err != nil {
		return nil, err
	}
	return c.consolidate(lot)
}

// ConsolidateAll builds the unified view for every lot matching the filter,
// newest production date first. Filters apply at the lot level before the
// per-lot consolidation runs.
func (c *Consolidator) ConsolidateAll(filter *datastore.LotFilter) ([]*ConsolidatedLot, error) {
	lots, err := c.ds.SearchLots(filter)
	if err != nil {
		return nil, err
	}

	consolidated := make([]*ConsolidatedLot, 0, len(lots))
	for i := range lots {
		view, err := c.consolidate(lots[i])
		if err != nil {
			return nil, err
		}
		consolidated = append(consolidated, view)
	}
	return consolidated, nil
}

func (c *Consolidator) consolidate(lot datastore.Lot) (*ConsolidatedLot, error) {
	production, err := c.ds.ProductionRecordsForLot(lot.ID)
	if err != nil {
		return nil, c.gatherError(err, lot.ID, "production")
	}
	quality, err := c.ds.QualityRecordsForLot(lot.ID)
	if err != nil {
		return nil, c.gatherError(err, lot.ID, "quality")
	}
	shipping, err := c.ds.ShippingRecordForLot(lot.ID)
	if err != nil {
		return nil, c.gatherError(err, lot.ID, "shipping")
	}

	lineName := lot.ProductionLine.LineName
	if lineName == "" {
		lineName = "Unknown"
	}

	view := &ConsolidatedLot{
		LotID:             lot.ID,
		LotNumber:         lot.BusinessLotNumber,
		ProductionDate:    lot.ProductionDate,
		ProductionLine:    lineName,
		ProductionRecords: production,
		QualityRecords:    quality,
		ShippingRecord:    shipping,
	}
	view.Summary = calculateSummary(view)
	return view, nil
}

func (c *Consolidator) gatherError(err error, lotID uint, source string) error {
	return errors.New(err).
		Component("consolidator").
		Category(errors.CategoryConsolidation).
		Context("lot_id", lotID).
		Context("source", source).
		Build()
}

func calculateSummary(view *ConsolidatedLot) Summary {
	summary := Summary{
		TotalProductionRecords: len(view.ProductionRecords),
		TotalQualityRecords:    len(view.QualityRecords),
		HasShippingRecord:      view.ShippingRecord != nil,
		ShipmentStatus:         datastore.NoShipmentRecord,
	}

	for i := range view.ProductionRecords {
		summary.TotalQuantityProduced += view.ProductionRecords[i].QuantityProduced
	}
	for i := range view.QualityRecords {
		summary.TotalDefects += view.QualityRecords[i].DefectCount
		switch view.QualityRecords[i].InspectionStatus {
		case datastore.InspectionPass:
			summary.PassCount++
		case datastore.InspectionFail:
			summary.FailCount++
		}
	}
	if view.ShippingRecord != nil {
		summary.ShipmentStatus = view.ShippingRecord.ShipmentStatus
	}
	return summary
}
