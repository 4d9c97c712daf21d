package otomoto

import (
	"net/url"
	"strconv"

	"otomoto-scraper/config"
	"otomoto-scraper/models"
)

// BuildSearchURL maps a parameter set and page number to a listing URL.
// Page 1 is the site default and gets no page parameter, keeping the
// canonical first-page URL stable. Fuel and gearbox go through the
// fixed enum maps and are silently dropped when unmapped — validation
// happens upstream, never here.
func BuildSearchURL(params models.SearchParams, page int) string {
	q := url.Values{}
	q.Set("search[advanced_search_expanded]", "true")

	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if params.Make != "" {
		q.Set("search[filter_enum_make]", params.Make)
	}
	if params.Model != "" {
		q.Set("search[filter_enum_model]", params.Model)
	}
	if params.YearMin > 0 {
		q.Set("search[filter_float_year:from]", strconv.Itoa(params.YearMin))
	}
	if params.YearMax > 0 {
		q.Set("search[filter_float_year:to]", strconv.Itoa(params.YearMax))
	}
	if params.MileageMax > 0 {
		q.Set("search[filter_float_mileage:to]", strconv.Itoa(params.MileageMax))
	}
	if params.PriceMax > 0 {
		q.Set("search[filter_float_price:to]", strconv.Itoa(params.PriceMax))
	}
	if params.Fuel != "" {
		if token, ok := config.FuelTypeMap[params.Fuel]; ok {
			q.Set("search[filter_enum_fuel_type]", token)
		}
	}
	if params.Transmission != "" {
		if token, ok := config.TransmissionMap[params.Transmission]; ok {
			q.Set("search[filter_enum_gearbox]", token)
		}
	}

	return config.SearchURL + "?" + q.Encode()
}
