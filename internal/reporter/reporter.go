// Package reporter generates operational summaries from the consolidated
// corpus: production line issues, defect trends, and shipment status.
// Results are cached for a short TTL since reports are typically refreshed
// far more often than the underlying data changes.
package reporter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/errors"
	"github.com/mkarvon/lotline/internal/logging"
	"github.com/mkarvon/lotline/internal/normalizer"
)

// defaultCacheTTL applies when settings carry no TTL.
const defaultCacheTTL = 60 * time.Second

// ShipmentStatus is the per-lot shipment view. When the lot has no shipping
// record at all, Status is synthesized as "Not Shipped" and HasRecord is
// false.
type ShipmentStatus struct {
	LotID          uint   `json:"lot_id"`
	LotNumber      string `json:"lot_number"`
	ProductionDate string `json:"production_date"`
	ProductionLine string `json:"production_line"`
	ShipmentStatus string `json:"shipment_status"`
	ShipmentDate   string `json:"shipment_date,omitempty"`
	CarrierInfo    string `json:"carrier_info,omitempty"`
	Destination    string `json:"destination,omitempty"`
	HasRecord      bool   `json:"has_record"`
}

// ShipmentSummary counts lots per effective shipment status. Lots with no
// shipping record at all count as not shipped.
type ShipmentSummary struct {
	Shipped    int64 `json:"shipped"`
	Pending    int64 `json:"pending"`
	NotShipped int64 `json:"not_shipped"`
}

// Reporter runs the aggregation queries and caches their results.
type Reporter struct {
	ds    datastore.Interface
	cache *cache.Cache
	log   *slog.Logger
}

// New returns a reporter backed by the given datastore. A zero or negative
// TTL falls back to the default.
func New(ds datastore.Interface, cacheTTL time.Duration) *Reporter {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	log := logging.ForService("reporter")
	if log == nil {
		log = slog.Default().With("service", "reporter")
	}
	return &Reporter{
		ds:    ds,
		cache: cache.New(cacheTTL, 2*cacheTTL),
		log:   log,
	}
}

// ProductionLineIssues summarizes production issues per line for the
// inclusive date range. An empty dateTo closes the range at dateFrom.
func (r *Reporter) ProductionLineIssues(dateFrom, dateTo string) ([]datastore.LineIssueSummary, error) {
	if dateTo == "" {
		dateTo = dateFrom
	}

	key := fmt.Sprintf("line_issues:%s:%s", dateFrom, dateTo)
	if cached, found := r.cache.Get(key); found {
		return cached.([]datastore.LineIssueSummary), nil
	}

	summaries, err := r.ds.ProductionLineIssues(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, summaries)
	return summaries, nil
}

// DefectTrends returns daily defect counts per defect type for the last
// daysBack days.
func (r *Reporter) DefectTrends(daysBack int) ([]datastore.DefectTrendPoint, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	sinceDate := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")

	key := fmt.Sprintf("defect_trends:%s", sinceDate)
	if cached, found := r.cache.Get(key); found {
		return cached.([]datastore.DefectTrendPoint), nil
	}

	trends, err := r.ds.DefectTrends(sinceDate)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, trends)
	return trends, nil
}

// DefectSummary aggregates defects per type over the whole corpus.
func (r *Reporter) DefectSummary() ([]datastore.DefectTypeSummary, error) {
	const key = "defect_summary"
	if cached, found := r.cache.Get(key); found {
		return cached.([]datastore.DefectTypeSummary), nil
	}

	summary, err := r.ds.DefectSummary()
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, summary)
	return summary, nil
}

// ShipmentStatusByID looks up one lot's shipment status by internal id.
func (r *Reporter) ShipmentStatusByID(lotID uint) (*ShipmentStatus, error) {
	lot, err := r.ds.GetLot(lotID)
	if err != nil {
		return nil, err
	}
	return r.shipmentStatus(lot)
}

// ShipmentStatusByNumber looks up one lot's shipment status by business lot
// number. Any raw feed spelling works; the number is normalized first.
func (r *Reporter) ShipmentStatusByNumber(lotNumber string) (*ShipmentStatus, error) {
	lot, err := r.ds.GetLotByNumber(normalizer.Normalize(lotNumber))
	if err != nil {
		return nil, err
	}
	return r.shipmentStatus(lot)
}

func (r *Reporter) shipmentStatus(lot datastore.Lot) (*ShipmentStatus, error) {
	record, err := r.ds.ShippingRecordForLot(lot.ID)
	if err != nil {
		return nil, err
	}

	lineName := lot.ProductionLine.LineName
	if lineName == "" {
		lineName = "Unknown"
	}

	status := &ShipmentStatus{
		LotID:          lot.ID,
		LotNumber:      lot.BusinessLotNumber,
		ProductionDate: lot.ProductionDate,
		ProductionLine: lineName,
		ShipmentStatus: datastore.ShipmentNotShipped,
	}
	if record != nil {
		status.ShipmentStatus = record.ShipmentStatus
		status.ShipmentDate = record.ShipmentDate
		status.CarrierInfo = record.CarrierInfo
		status.Destination = record.Destination
		status.HasRecord = true
	}
	return status, nil
}

// ShipmentStatusSummary counts lots per shipment status across the corpus.
func (r *Reporter) ShipmentStatusSummary() (*ShipmentSummary, error) {
	const key = "shipment_summary"
	if cached, found := r.cache.Get(key); found {
		summary := cached.(ShipmentSummary)
		return &summary, nil
	}

	counts, err := r.ds.ShipmentStatusCounts()
	if err != nil {
		return nil, err
	}
	withoutRecord, err := r.ds.CountLotsWithoutShipping()
	if err != nil {
		return nil, err
	}

	summary := ShipmentSummary{
		Shipped:    counts[datastore.ShipmentShipped],
		Pending:    counts[datastore.ShipmentPending],
		NotShipped: counts[datastore.ShipmentNotShipped] + withoutRecord,
	}
	r.cache.SetDefault(key, summary)
	return &summary, nil
}

// InvalidateCache drops every cached report, forcing fresh queries. Called
// after imports change the corpus.
func (r *Reporter) InvalidateCache() {
	r.cache.Flush()
}

func (r *Reporter) reportError(err error, report string) error {
	return errors.New(err).
		Component("reporter").
		Category(errors.CategoryReport).
		Context("report", report).
		Build()
}
