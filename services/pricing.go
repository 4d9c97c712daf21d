package services

import (
	"math"
	"sort"

	"otomoto-scraper/models"
)

// minConsideredPrice filters out zero/placeholder prices before any
// statistics run.
const minConsideredPrice = 100

// trimFraction is removed from each end of the sorted price list as
// outlier protection (integer count, truncated).
const trimFraction = 0.05

// Interval is a nullable min/max price range.
type Interval struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// PriceReport is the JSON document printed for a single search.
type PriceReport struct {
	PriceInterval   Interval     `json:"preco_intervalo"`
	ApproxAverage   *float64     `json:"media_aproximada"`
	ConsideredCount int          `json:"viaturas_consideradas"`
	UsedListings    []models.Car `json:"anuncios_usados_para_calculo"`
}

// EmptyReport returns the all-null report shape used when nothing was
// found or an error pre-empted the search.
func EmptyReport() PriceReport {
	return PriceReport{UsedListings: []models.Car{}}
}

// GenerateReport computes the trimmed price interval and average over
// a listing set. The cheapest and most expensive 5% are discarded;
// when trimming would leave nothing, the untrimmed set is used.
//
// The listing list in the report is selected by value membership in
// the trimmed price range, not by the trimmed indices themselves, so
// duplicate-priced listings at a trim boundary can all appear.
func GenerateReport(cars []models.Car) PriceReport {
	prices := make([]float64, 0, len(cars))
	for _, c := range cars {
		if c.Price > minConsideredPrice {
			prices = append(prices, c.Price)
		}
	}
	if len(prices) == 0 {
		return EmptyReport()
	}

	sort.Float64s(prices)

	cut := int(float64(len(prices)) * trimFraction)
	trimmed := prices
	if cut > 0 {
		trimmed = prices[cut : len(prices)-cut]
	}
	if len(trimmed) == 0 {
		trimmed = prices
	}

	var sum float64
	kept := make(map[float64]struct{}, len(trimmed))
	for _, p := range trimmed {
		sum += p
		kept[p] = struct{}{}
	}
	avg := math.Round(sum/float64(len(trimmed))*100) / 100

	used := make([]models.Car, 0, len(cars))
	for _, c := range cars {
		if _, ok := kept[c.Price]; ok {
			used = append(used, c)
		}
	}

	minPrice := trimmed[0]
	maxPrice := trimmed[len(trimmed)-1]

	return PriceReport{
		PriceInterval:   Interval{Min: &minPrice, Max: &maxPrice},
		ApproxAverage:   &avg,
		ConsideredCount: len(trimmed),
		UsedListings:    used,
	}
}
