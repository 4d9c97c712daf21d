package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"otomoto-scraper/catalog"
	"otomoto-scraper/config"
	"otomoto-scraper/models"
	"otomoto-scraper/storage"
	"otomoto-scraper/utils"
)

// Searcher is the slice of the scraper the bulk runner needs.
type Searcher interface {
	SearchCars(ctx context.Context, params models.SearchParams, maxPages int) ([]models.Car, error)
}

// Stats summarizes one bulk run.
type Stats struct {
	Processed   int
	WithResults int
	Empty       int
	Skipped     int
	Errors      int
}

// Runner iterates every brand/model pair of the catalog in catalog
// order, persisting per-pair CSV files and progress as it goes.
type Runner struct {
	cfg      *config.Config
	cat      *catalog.Catalog
	searcher Searcher
}

func NewRunner(cfg *config.Config, cat *catalog.Catalog, searcher Searcher) *Runner {
	return &Runner{cfg: cfg, cat: cat, searcher: searcher}
}

// Run walks the whole catalog. A pair already marked done, or whose
// CSV already exists on disk, is skipped (dual resume signal). A
// cancelled ctx stops the run between pairs with progress saved and
// partial stats returned. One failing pair never aborts the run: it is
// counted, a longer cooldown applies, and iteration continues.
func (r *Runner) Run(ctx context.Context) Stats {
	var stats Stats

	totalModels := 0
	for _, key := range r.cat.Keys() {
		if b, ok := r.cat.Brand(key); ok {
			totalModels += len(b.Models)
		}
	}

	utils.Info("Full extraction started: %d brands, %d models, %d pages/model, output=%s",
		r.cat.Len(), totalModels, r.cfg.BulkMaxPages, r.cfg.OutputDir)

	progress := LoadProgress(r.cfg.OutputDir)
	start := time.Now()
	modelIdx := 0

	for brandIdx, key := range r.cat.Keys() {
		brand, ok := r.cat.Brand(key)
		if !ok {
			continue
		}
		brandDir := filepath.Join(r.cfg.OutputDir, sanitize(brand.Value))
		utils.Info("[Brand %d/%d] %s (%d models)", brandIdx+1, r.cat.Len(), brand.Text, len(brand.Models))

		for _, model := range brand.Models {
			modelIdx++

			select {
			case <-ctx.Done():
				utils.Warn("Extraction cancelled. Progress saved.")
				r.finish(progress, stats, totalModels, start)
				return stats
			default:
			}

			if progress.Contains(brand.Value, model.Value) {
				stats.Skipped++
				continue
			}

			csvPath := filepath.Join(brandDir, sanitize(model.Value), sanitize(model.Value)+".csv")
			if _, err := os.Stat(csvPath); err == nil {
				// CSV left over from a run whose progress file was lost.
				progress.Add(brand.Value, model.Value)
				stats.Skipped++
				continue
			}

			elapsed := time.Since(start)
			pace := "ETA --"
			if eta, ok := estimateETA(elapsed, stats.Processed+stats.Errors, totalModels-modelIdx+1); ok {
				pace = "ETA " + eta.Round(time.Second).String()
			}
			utils.Info("  [%d/%d | %.1f%%] %s/%s | elapsed %s | %s",
				modelIdx, totalModels, float64(modelIdx)/float64(totalModels)*100,
				brand.Value, model.Value, elapsed.Round(time.Second), pace)

			params := models.SearchParams{Make: brand.Value, Model: model.Value}
			cars, err := r.searcher.SearchCars(ctx, params, r.cfg.BulkMaxPages)
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					utils.Warn("Extraction cancelled. Progress saved.")
					r.finish(progress, stats, totalModels, start)
					return stats
				}
				stats.Errors++
				utils.Error("  ✗ %s/%s: %v", brand.Value, model.Value, err)
				// Longer pause after a failure before moving on.
				utils.Sleep(ctx, 2*r.cfg.BulkDelay)
				continue
			}

			stats.Processed++
			if len(cars) > 0 {
				if err := storage.NewCSVWriter(csvPath).Write(cars); err != nil {
					stats.Errors++
					utils.Error("  ✗ %s/%s: %v", brand.Value, model.Value, err)
					utils.Sleep(ctx, 2*r.cfg.BulkDelay)
					continue
				}
				stats.WithResults++
				utils.Success("  ✓ %d cars saved → %s", len(cars), csvPath)
			} else {
				stats.Empty++
			}

			progress.Add(brand.Value, model.Value)
			if err := progress.Save(); err != nil {
				utils.Error("Could not save progress: %v", err)
			}

			utils.Sleep(ctx, r.cfg.BulkDelay)
		}
	}

	r.finish(progress, stats, totalModels, start)
	return stats
}

func (r *Runner) finish(progress *Progress, stats Stats, totalModels int, start time.Time) {
	if err := progress.Save(); err != nil {
		utils.Error("Could not save progress: %v", err)
	}
	utils.Info("Full extraction finished: processed=%d with_results=%d empty=%d skipped=%d errors=%d of %d models in %s",
		stats.Processed, stats.WithResults, stats.Empty, stats.Skipped, stats.Errors,
		totalModels, time.Since(start).Round(time.Second))
}

// estimateETA projects the remaining run time from the average pace of
// the pairs attempted so far. Before the first attempt there is no
// pace, so no estimate.
func estimateETA(elapsed time.Duration, attempted, remaining int) (time.Duration, bool) {
	if attempted <= 0 || remaining <= 0 {
		return 0, false
	}
	return elapsed / time.Duration(attempted) * time.Duration(remaining), true
}

// sanitize strips characters that are invalid in directory or file
// names on any supported OS.
func sanitize(name string) string {
	const invalid = `\/:*?"<>|`
	out := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalid, r) {
			return '-'
		}
		return r
	}, name)
	return strings.Trim(strings.TrimSpace(out), ".")
}
