package models

// SearchParams holds the user-supplied search criteria.
// Zero values mean "not set"; the URL builder skips unset fields.
type SearchParams struct {
	Make         string
	Model        string
	YearMin      int
	YearMax      int
	MileageMax   int
	PriceMax     int
	Transmission string
	Fuel         string
}

// Car is one scraped vehicle advertisement.
// JSON tags match the report keys expected by downstream consumers;
// the numeric price is internal only.
type Car struct {
	Title    string  `json:"Título"`
	RawPrice string  `json:"Preço"`
	Price    float64 `json:"-"`
	Currency string  `json:"Moeda"`
	Year     int     `json:"Ano,omitempty"`
	Mileage  string  `json:"Quilometragem,omitempty"`
	Fuel     string  `json:"Combustível,omitempty"`
	URL      string  `json:"URL,omitempty"`
}
