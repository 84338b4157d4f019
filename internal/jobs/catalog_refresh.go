package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"ikshan/internal/catalog"
)

// CatalogRefresher re-warms the catalog caches on a fixed interval so the
// first visitor after a TTL expiry never pays the fetch latency.
type CatalogRefresher struct {
	loader    *catalog.Loader
	taskDocs  *catalog.TaskDocStore
	interval  time.Duration
	scheduler gocron.Scheduler
}

func NewCatalogRefresher(loader *catalog.Loader, taskDocs *catalog.TaskDocStore, interval time.Duration) (*CatalogRefresher, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &CatalogRefresher{
		loader:    loader,
		taskDocs:  taskDocs,
		interval:  interval,
		scheduler: scheduler,
	}, nil
}

// Start schedules the periodic refresh and begins running it.
func (r *CatalogRefresher) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.refresh),
		gocron.WithName("catalog_refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule catalog refresh: %w", err)
	}

	r.scheduler.Start()
	log.Printf("⏰ [REFRESH] catalog refresh scheduled every %v", r.interval)
	return nil
}

// refresh drops the caches and re-fetches every dataset. Per-dataset errors
// are logged and skipped so one bad source never blocks the others.
func (r *CatalogRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Println("🔄 [REFRESH] refreshing catalog datasets")
	r.loader.Invalidate()
	if r.taskDocs != nil {
		r.taskDocs.Invalidate()
	}

	if _, err := r.loader.Companies(ctx); err != nil {
		log.Printf("⚠️ [REFRESH] companies refresh failed: %v", err)
	}
	if _, err := r.loader.Tools(ctx); err != nil {
		log.Printf("⚠️ [REFRESH] tools refresh failed: %v", err)
	}
	if _, err := r.loader.Assistants(ctx); err != nil {
		log.Printf("⚠️ [REFRESH] assistants refresh failed: %v", err)
	}
	log.Println("✅ [REFRESH] catalog refresh complete")
}

// Stop shuts the scheduler down, waiting for a running refresh to finish.
func (r *CatalogRefresher) Stop() {
	if err := r.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ [REFRESH] scheduler shutdown: %v", err)
	}
}
