// Package matcher resolves raw feed identifiers to durable lots. Lookups
// run against a point-in-time index of known lots; identifiers with no
// existing lot can be minted through an idempotent get-or-create.
package matcher

import (
	"log/slog"
	"strings"
	"time"

	"github.com/mkarvon/lotline/internal/datastore"
	"github.com/mkarvon/lotline/internal/errors"
	"github.com/mkarvon/lotline/internal/logging"
	"github.com/mkarvon/lotline/internal/normalizer"
)

// Index is a snapshot of all known lots keyed by canonical lot number. It is
// a disposable cache, never authoritative: lots created after TakenAt are
// invisible until the caller rebuilds. Iteration order is the lot id order
// the snapshot was read in, so secondary-match ties resolve the same way on
// every run.
type Index struct {
	TakenAt time.Time

	keys []string
	lots map[string]datastore.Lot
}

// Len returns the number of distinct canonical keys in the index.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Lookup returns the lot for an exact canonical key.
func (ix *Index) Lookup(key string) (datastore.Lot, bool) {
	lot, ok := ix.lots[key]
	return lot, ok
}

func (ix *Index) add(key string, lot datastore.Lot) {
	if _, seen := ix.lots[key]; !seen {
		ix.keys = append(ix.keys, key)
	}
	ix.lots[key] = lot
}

// Matcher matches raw identifiers against the lot corpus.
type Matcher struct {
	ds      datastore.Interface
	auditor *normalizer.Auditor
	log     *slog.Logger
}

// New returns a matcher backed by the given datastore.
func New(ds datastore.Interface) *Matcher {
	log := logging.ForService("matcher")
	if log == nil {
		log = slog.Default().With("service", "matcher")
	}
	return &Matcher{
		ds:      ds,
		auditor: normalizer.NewAuditor(ds),
		log:     log,
	}
}

// BuildIndex reads every known lot and returns a fresh snapshot index.
func (m *Matcher) BuildIndex() (*Index, error) {
	lots, err := m.ds.GetAllLots()
	if err != nil {
		return nil, errors.New(err).
			Component("matcher").
			Category(errors.CategoryMatching).
			Context("operation", "build_index").
			Build()
	}

	ix := &Index{
		TakenAt: time.Now(),
		lots:    make(map[string]datastore.Lot, len(lots)),
	}
	for _, lot := range lots {
		key := normalizer.Normalize(lot.BusinessLotNumber)
		if key == "" {
			continue
		}
		ix.add(key, lot)
	}

	m.log.Debug("Built lot index", "entries", ix.Len(), "taken_at", ix.TakenAt)
	return ix, nil
}

// FindMatchingLot resolves a raw identifier against the index. The primary
// match is the exact canonical key. When that misses and a production date
// is supplied, a narrow secondary match catches year-formatting drift:
// candidates sharing the production date are compared after stripping dashes
// and the first occurrence of the year from both keys. The first candidate
// in index order wins a tie. No match returns nil, not an error.
func (m *Matcher) FindMatchingLot(rawID, productionDate string, ix *Index) *datastore.Lot {
	key := normalizer.Normalize(rawID)

	if lot, ok := ix.Lookup(key); ok {
		return &lot
	}

	if productionDate != "" {
		if year := yearOf(productionDate); year != "" {
			want := secondaryForm(key, year)
			for _, candidateKey := range ix.keys {
				lot := ix.lots[candidateKey]
				if lot.ProductionDate != productionDate {
					continue
				}
				if secondaryForm(candidateKey, year) == want {
					return &lot
				}
			}
		}
	}

	m.log.Warn("No matching lot found", "raw_id", rawID)
	return nil
}

// GetOrCreate resolves a raw identifier to its lot, creating the lot (and
// the production line, if unseen) on first sight. Safe to call repeatedly
// for the same identifier: the same lot comes back each time, though every
// call appends its own audit entry. Ambiguous identifiers still resolve,
// but their audit entries carry the Ambiguous status and flag reason so the
// consistency checks can surface them for review. A duplicate-key race on
// create is resolved by re-reading the winner's row.
func (m *Matcher) GetOrCreate(rawID, productionDate, productionLine string) (datastore.Lot, error) {
	key := normalizer.Normalize(rawID)
	if key == "" {
		return datastore.Lot{}, errors.Newf("cannot create lot from empty identifier").
			Component("matcher").
			Category(errors.CategoryValidation).
			Context("raw_id", rawID).
			Build()
	}

	status := datastore.ValidationValid
	ambiguous, reason := normalizer.IsAmbiguous(key)
	if ambiguous {
		status = datastore.ValidationAmbiguous
		m.log.Warn("Ambiguous lot identifier",
			"raw_id", rawID, "canonical_key", key, "reason", reason)
	}

	lot, err := m.ds.GetLotByNumber(key)
	if err == nil {
		m.auditor.RecordNormalization(rawID, key, status, reason)
		return lot, nil
	}
	if !errors.IsNotFound(err) {
		return datastore.Lot{}, err
	}

	line, err := m.ds.GetOrCreateProductionLine(productionLine)
	if err != nil {
		return datastore.Lot{}, err
	}

	newLot := datastore.Lot{
		BusinessLotNumber: key,
		ProductionDate:    productionDate,
		ProductionLineID:  line.ID,
		IsNormalized:      true,
	}
	if err := m.ds.CreateLot(&newLot); err != nil {
		if datastore.IsDuplicateKey(err) {
			// Lost the create race; the winner's row is the lot
			existing, rerr := m.ds.GetLotByNumber(key)
			if rerr != nil {
				return datastore.Lot{}, rerr
			}
			m.auditor.RecordNormalization(rawID, key, status, reason)
			return existing, nil
		}
		return datastore.Lot{}, err
	}

	m.auditor.RecordNormalization(rawID, key, status, reason)
	m.log.Debug("Created lot", "canonical_key", key, "production_line", line.LineName)
	return newLot, nil
}

// secondaryForm reduces a canonical key for the date-based secondary match:
// dashes removed, then the first occurrence of the year removed.
func secondaryForm(key, year string) string {
	stripped := strings.ReplaceAll(key, "-", "")
	return strings.Replace(stripped, year, "", 1)
}

// yearOf extracts the 4-digit year from a YYYY-MM-DD date string.
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	year := date[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}
