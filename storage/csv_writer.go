package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"otomoto-scraper/models"
	"otomoto-scraper/utils"
)

// csvHeader is the fixed column order of every per-model output file.
var csvHeader = []string{
	"Título", "Preço", "Preço Numérico", "Moeda", "Ano", "Quilometragem", "Combustível", "URL",
}

// CSVWriter saves car listings to a CSV file.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write saves all cars to the CSV file, creating the output directory
// if it does not exist.
func (w *CSVWriter) Write(cars []models.Car) error {
	if len(cars) == 0 {
		utils.Warn("No cars to write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	// csv.NewWriter handles quoting, commas inside fields, line endings
	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write(csvHeader)
	for _, c := range cars {
		year := ""
		if c.Year > 0 {
			year = strconv.Itoa(c.Year)
		}
		writer.Write([]string{
			c.Title,
			c.RawPrice,
			strconv.FormatFloat(c.Price, 'f', -1, 64),
			c.Currency,
			year,
			c.Mileage,
			c.Fuel,
			c.URL,
		})
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}
