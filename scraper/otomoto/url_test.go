package otomoto

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otomoto-scraper/models"
)

func parseQuery(t *testing.T, rawURL string) url.Values {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	q, err := url.ParseQuery(u.RawQuery)
	require.NoError(t, err)
	return q
}

func TestBuildSearchURL(t *testing.T) {
	t.Run("page 1 has no page parameter", func(t *testing.T) {
		q := parseQuery(t, BuildSearchURL(models.SearchParams{Make: "bmw"}, 1))
		assert.Equal(t, "true", q.Get("search[advanced_search_expanded]"))
		assert.NotContains(t, q, "page")
	})

	t.Run("page above 1 carries exactly one page parameter", func(t *testing.T) {
		q := parseQuery(t, BuildSearchURL(models.SearchParams{Make: "bmw"}, 3))
		require.Len(t, q["page"], 1)
		assert.Equal(t, "3", q.Get("page"))
	})

	t.Run("every set parameter contributes one query key", func(t *testing.T) {
		params := models.SearchParams{
			Make:         "bmw",
			Model:        "x5",
			YearMin:      2015,
			YearMax:      2020,
			MileageMax:   150000,
			PriceMax:     50000,
			Transmission: "automatica",
			Fuel:         "gasoleo",
		}
		q := parseQuery(t, BuildSearchURL(params, 1))

		assert.Equal(t, "bmw", q.Get("search[filter_enum_make]"))
		assert.Equal(t, "x5", q.Get("search[filter_enum_model]"))
		assert.Equal(t, "2015", q.Get("search[filter_float_year:from]"))
		assert.Equal(t, "2020", q.Get("search[filter_float_year:to]"))
		assert.Equal(t, "150000", q.Get("search[filter_float_mileage:to]"))
		assert.Equal(t, "50000", q.Get("search[filter_float_price:to]"))
		assert.Equal(t, "diesel", q.Get("search[filter_enum_fuel_type]"))
		assert.Equal(t, "automatic", q.Get("search[filter_enum_gearbox]"))
	})

	t.Run("unset parameters are absent", func(t *testing.T) {
		q := parseQuery(t, BuildSearchURL(models.SearchParams{}, 1))
		assert.Len(t, q, 1) // only the advanced-search marker
	})

	t.Run("unmapped fuel and gearbox are silently omitted", func(t *testing.T) {
		params := models.SearchParams{Fuel: "kerosene", Transmission: "cvt"}
		q := parseQuery(t, BuildSearchURL(params, 1))
		assert.Empty(t, q.Get("search[filter_enum_fuel_type]"))
		assert.Empty(t, q.Get("search[filter_enum_gearbox]"))
	})

	t.Run("normalized bmw x5 search end to end", func(t *testing.T) {
		params := models.SearchParams{Make: "bmw", Model: "x5", PriceMax: 50000}
		built := BuildSearchURL(params, 1)

		assert.Contains(t, built, "https://www.otomoto.pl/osobowe?")
		q := parseQuery(t, built)
		assert.Equal(t, "bmw", q.Get("search[filter_enum_make]"))
		assert.Equal(t, "x5", q.Get("search[filter_enum_model]"))
		assert.Equal(t, "50000", q.Get("search[filter_float_price:to]"))
	})
}
