// Package scheduler provides automated catalog refresh scheduling and
// health monitoring for the formulary API. It periodically reloads the
// drug name and category catalog from storage and coordinates the swap
// with the catalog container using dependency injection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/logging"
	"github.com/giygas/formulary-api/metrics"
)

// Compile-time check
var _ interfaces.Scheduler = (*Scheduler)(nil)

// refreshTimeout bounds each catalog reload against storage.
const refreshTimeout = 30 * time.Second

// Scheduler handles catalog refreshes and health monitoring.
type Scheduler struct {
	catalog   interfaces.Catalog
	store     interfaces.StorageReader
	interval  time.Duration
	scheduler *gocron.Scheduler
	stopCh    chan struct{}
}

// NewScheduler creates a scheduler that refreshes the catalog from
// storage every interval.
func NewScheduler(catalog interfaces.Catalog, store interfaces.StorageReader, interval time.Duration) *Scheduler {
	return &Scheduler{
		catalog:   catalog,
		store:     store,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
		stopCh:    make(chan struct{}),
	}
}

// Start performs the initial catalog load, schedules periodic
// refreshes, and begins health monitoring. A failed initial load is
// fatal: the query pipeline cannot run on an empty catalog.
func (s *Scheduler) Start() error {
	if err := s.refreshCatalog(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		if err := s.refreshCatalog(); err != nil {
			logging.Error("Failed to refresh catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog refreshes", "error", err)
		return fmt.Errorf("failed to schedule catalog refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler and the health monitor.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.stopCh)
}

// refreshCatalog reloads drug names and categories from storage and
// swaps them into the catalog atomically.
func (s *Scheduler) refreshCatalog() error {
	// Prevent concurrent refreshes
	if !s.catalog.BeginUpdate() {
		logging.Info("Catalog refresh already in progress, skipping...")
		return nil
	}
	defer s.catalog.EndUpdate()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	drugNames, err := s.store.FetchAllDrugNames(ctx)
	if err != nil {
		logging.Error("Failed to fetch drug names", "error", err)
		return fmt.Errorf("failed to fetch drug names: %w", err)
	}
	if len(drugNames) == 0 {
		logging.Warn("Storage returned an empty drug catalog, keeping current data")
		return fmt.Errorf("storage returned no drug names")
	}

	categories, err := s.store.FetchDistinctCategories(ctx)
	if err != nil {
		logging.Error("Failed to fetch categories", "error", err)
		return fmt.Errorf("failed to fetch categories: %w", err)
	}

	s.catalog.UpdateData(drugNames, categories)

	elapsed := time.Since(start)
	metrics.CatalogRefreshDuration.Observe(elapsed.Seconds())
	logging.Info("Catalog refresh completed",
		"duration", elapsed.String(),
		"drug_count", len(drugNames),
		"category_count", len(categories))

	return nil
}

// startHealthMonitoring warns when the catalog has not been refreshed
// for more than two scheduled intervals.
func (s *Scheduler) startHealthMonitoring() {
	staleAfter := 2 * s.interval

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				lastUpdate := s.catalog.GetLastUpdated()
				if time.Since(lastUpdate) > staleAfter {
					logging.Warn("Catalog has not been refreshed recently",
						"last_updated", lastUpdate.Format(time.RFC3339),
						"stale_after", staleAfter.String())
				}
			}
		}
	}()
}
