package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otomoto-scraper/models"
)

func TestCSVWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmw", "x5", "x5.csv")

	cars := []models.Car{
		{
			Title:    "BMW X5 xDrive30d",
			RawPrice: "185000 PLN",
			Price:    185000,
			Currency: "PLN",
			Year:     2019,
			Mileage:  "150 000 km",
			Fuel:     "Diesel",
			URL:      "https://www.otomoto.pl/oferta/bmw-1",
		},
		{
			Title:    "BMW X5, no extras",
			RawPrice: "90000 PLN",
			Price:    90000,
			Currency: "PLN",
		},
	}

	require.NoError(t, NewCSVWriter(path).Write(cars))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"Título", "Preço", "Preço Numérico", "Moeda", "Ano", "Quilometragem", "Combustível", "URL",
	}, rows[0])
	assert.Equal(t, []string{
		"BMW X5 xDrive30d", "185000 PLN", "185000", "PLN", "2019", "150 000 km", "Diesel",
		"https://www.otomoto.pl/oferta/bmw-1",
	}, rows[1])
	// Unknown year stays blank instead of a literal zero.
	assert.Equal(t, "", rows[2][4])
}

func TestCSVWriterNoCarsWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	require.NoError(t, NewCSVWriter(path).Write(nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
