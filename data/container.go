// Package data provides thread-safe storage for the in-memory drug
// catalog: the drug name and category snapshots used by fuzzy matching
// and autocomplete, with atomic swaps for zero-downtime refreshes.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/logging"
)

// Compile-time check to ensure CatalogContainer implements Catalog
var _ interfaces.Catalog = (*CatalogContainer)(nil)

// CatalogContainer holds the catalog snapshots with atomic pointers for
// zero-downtime refreshes
type CatalogContainer struct {
	drugNames       atomic.Value // []string
	categories      atomic.Value // []string
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewCatalogContainer creates a new CatalogContainer with empty data.
// The server start time defaults to now so uptime reporting is valid
// even before SetServerStartTime is called.
func NewCatalogContainer() *CatalogContainer {
	cc := &CatalogContainer{}
	cc.drugNames.Store(make([]string, 0))
	cc.categories.Store(make([]string, 0))
	cc.lastUpdated.Store(time.Time{})
	cc.serverStartTime.Store(time.Now())
	return cc
}

// Thread-safe getters with type check

// GetDrugNames returns the current drug name snapshot. Callers must
// treat the slice as read-only.
func (cc *CatalogContainer) GetDrugNames() []string {
	if v := cc.drugNames.Load(); v != nil {
		if names, ok := v.([]string); ok {
			return names
		}
	}

	logging.Warn("Drug name catalog is empty or invalid")
	return []string{}
}

// GetCategories returns the current category snapshot
func (cc *CatalogContainer) GetCategories() []string {
	if v := cc.categories.Load(); v != nil {
		if categories, ok := v.([]string); ok {
			return categories
		}
	}

	logging.Warn("Category catalog is empty or invalid")
	return []string{}
}

// GetLastUpdated returns the timestamp of the last catalog refresh
func (cc *CatalogContainer) GetLastUpdated() time.Time {
	if v := cc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog refresh is currently in progress
func (cc *CatalogContainer) IsUpdating() bool {
	return cc.updating.Load()
}

// SetServerStartTime sets the server start time
func (cc *CatalogContainer) SetServerStartTime(startTime time.Time) {
	cc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (cc *CatalogContainer) GetServerStartTime() time.Time {
	if v := cc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically swaps both catalog snapshots
func (cc *CatalogContainer) UpdateData(drugNames []string, categories []string) {
	// Atomic swap (zero downtime replacement)
	cc.drugNames.Store(drugNames)
	cc.categories.Store(categories)
	cc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a catalog refresh
// Returns true if the refresh can proceed, false if another refresh is
// in progress
func (cc *CatalogContainer) BeginUpdate() bool {
	return cc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog refresh
func (cc *CatalogContainer) EndUpdate() {
	cc.updating.Store(false)
}
