package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otomoto-scraper/catalog"
	"otomoto-scraper/config"
	"otomoto-scraper/models"
)

const catalogJSON = `{
	"brands": {
		"bmw": {"brand_value": "bmw", "brand_text": "BMW", "models": [
			{"value": "x5", "text": "X5"},
			{"value": "x3", "text": "X3"}
		]},
		"audi": {"brand_value": "audi", "brand_text": "Audi", "models": [
			{"value": "a4", "text": "A4"}
		]}
	}
}`

type fakeSearcher struct {
	calls []string
	cars  []models.Car
	err   error
}

func (f *fakeSearcher) SearchCars(_ context.Context, params models.SearchParams, _ int) ([]models.Car, error) {
	f.calls = append(f.calls, params.Make+"/"+params.Model)
	return f.cars, f.err
}

func testSetup(t *testing.T) (*config.Config, *catalog.Catalog) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(dbPath, []byte(catalogJSON), 0644))

	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(dir, "cars")
	cfg.BulkDelay = 0
	cfg.BulkMaxPages = 1

	return cfg, catalog.Load(dbPath)
}

func someCars() []models.Car {
	return []models.Car{
		{Title: "BMW X5", RawPrice: "180000 PLN", Price: 180000, Currency: "PLN", URL: "https://example.test/1"},
	}
}

func TestRunnerProcessesEveryPairInCatalogOrder(t *testing.T) {
	cfg, cat := testSetup(t)
	searcher := &fakeSearcher{cars: someCars()}

	stats := NewRunner(cfg, cat, searcher).Run(context.Background())

	assert.Equal(t, []string{"bmw/x5", "bmw/x3", "audi/a4"}, searcher.calls)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 3, stats.WithResults)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Errors)

	for _, rel := range []string{"bmw/x5/x5.csv", "bmw/x3/x3.csv", "audi/a4/a4.csv"} {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, rel))
		assert.NoError(t, err, rel)
	}
}

func TestRunnerSkipsPairsMarkedDone(t *testing.T) {
	cfg, cat := testSetup(t)

	first := &fakeSearcher{cars: someCars()}
	NewRunner(cfg, cat, first).Run(context.Background())

	second := &fakeSearcher{cars: someCars()}
	stats := NewRunner(cfg, cat, second).Run(context.Background())

	assert.Empty(t, second.calls)
	assert.Equal(t, 3, stats.Skipped)
	assert.Zero(t, stats.Processed)
}

func TestRunnerSkipsPairsWithExistingCSV(t *testing.T) {
	cfg, cat := testSetup(t)

	first := &fakeSearcher{cars: someCars()}
	NewRunner(cfg, cat, first).Run(context.Background())

	// Lose the progress file: the on-disk CSVs are the second resume
	// signal and must still prevent refetching.
	require.NoError(t, os.Remove(filepath.Join(cfg.OutputDir, ProgressFileName)))

	second := &fakeSearcher{cars: someCars()}
	stats := NewRunner(cfg, cat, second).Run(context.Background())

	assert.Empty(t, second.calls)
	assert.Equal(t, 3, stats.Skipped)

	// The CSV-based skip back-fills the progress set.
	reloaded := LoadProgress(cfg.OutputDir)
	assert.Equal(t, 3, reloaded.Len())
}

func TestRunnerEmptyResultsAreMarkedDoneWithoutFiles(t *testing.T) {
	cfg, cat := testSetup(t)
	searcher := &fakeSearcher{}

	stats := NewRunner(cfg, cat, searcher).Run(context.Background())

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 3, stats.Empty)
	assert.Zero(t, stats.WithResults)

	_, err := os.Stat(filepath.Join(cfg.OutputDir, "bmw", "x5", "x5.csv"))
	assert.True(t, os.IsNotExist(err))

	reloaded := LoadProgress(cfg.OutputDir)
	assert.True(t, reloaded.Contains("bmw", "x5"))
}

func TestRunnerContinuesAfterPairError(t *testing.T) {
	cfg, cat := testSetup(t)
	searcher := &fakeSearcher{err: errors.New("boom")}

	stats := NewRunner(cfg, cat, searcher).Run(context.Background())

	assert.Len(t, searcher.calls, 3)
	assert.Equal(t, 3, stats.Errors)
	assert.Zero(t, stats.Processed)

	// Failed pairs are not marked done, so a later run retries them.
	reloaded := LoadProgress(cfg.OutputDir)
	assert.Zero(t, reloaded.Len())
}

func TestRunnerStopsCleanlyOnCancellation(t *testing.T) {
	cfg, cat := testSetup(t)
	searcher := &fakeSearcher{cars: someCars()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := NewRunner(cfg, cat, searcher).Run(ctx)

	assert.Empty(t, searcher.calls)
	assert.Zero(t, stats.Processed)

	// Progress is persisted even on the cancellation path.
	_, err := os.Stat(filepath.Join(cfg.OutputDir, ProgressFileName))
	assert.NoError(t, err)
}

func TestEstimateETA(t *testing.T) {
	// 10 pairs took 100s, 5 remain: 50s to go.
	eta, ok := estimateETA(100*time.Second, 10, 5)
	assert.True(t, ok)
	assert.Equal(t, 50*time.Second, eta)

	// No pairs attempted yet: no pace to project from.
	_, ok = estimateETA(time.Minute, 0, 5)
	assert.False(t, ok)

	// Nothing left to do.
	_, ok = estimateETA(time.Minute, 10, 0)
	assert.False(t, ok)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a-b-c", sanitize(`a/b\c`))
	assert.Equal(t, "mercedes-benz", sanitize("mercedes-benz"))
	assert.Equal(t, "x5", sanitize(" x5. "))
}
