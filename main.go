package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"otomoto-scraper/catalog"
	"otomoto-scraper/config"
	"otomoto-scraper/extraction"
	"otomoto-scraper/models"
	"otomoto-scraper/scraper/otomoto"
	"otomoto-scraper/services"
	"otomoto-scraper/utils"
)

// errorReport extends the empty report shape with validation detail.
type errorReport struct {
	services.PriceReport
	Erro      string              `json:"erro"`
	Detalhes  []string            `json:"detalhes"`
	Sugestoes catalog.Suggestions `json:"sugestoes"`
}

func main() {
	os.Exit(run())
}

// run keeps all the deferred cleanup ahead of the final os.Exit.
func run() int {
	fullExtraction := flag.Bool("full_extraction", false, "Extração completa: scraping de todas as marcas e modelos")
	marca := flag.String("marca", "", "Marca (ex: bmw)")
	modelo := flag.String("modelo", "", "Modelo (ex: x5)")
	anoMin := flag.Int("ano_min", 0, "Ano mínimo")
	anoMax := flag.Int("ano_max", 0, "Ano máximo")
	kmMax := flag.Int("km_max", 0, "KM máximo")
	precoMax := flag.Int("preco_max", 0, "Preço máximo")
	caixa := flag.String("caixa", "", "Tipo de caixa (manual|automatica)")
	combustivel := flag.String("combustivel", "", "Tipo de combustível (gasolina|gasoleo|diesel|gpl|hibrido|eletrico|hidrogenio)")
	flag.Parse()

	cfg := config.Load()
	if err := utils.SetupLogFile(cfg.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "could not set up logging: %v\n", err)
	}
	utils.Info("Scraper starting | pages=%d bulk_pages=%d timeout=%v",
		cfg.MaxPages, cfg.BulkMaxPages, cfg.RequestTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *caixa != "" {
		if _, ok := config.TransmissionMap[*caixa]; !ok {
			return invalidParams(fmt.Sprintf("Caixa '%s' inválida (manual|automatica).", *caixa), catalog.Suggestions{})
		}
	}
	if *combustivel != "" {
		if _, ok := config.FuelTypeMap[*combustivel]; !ok {
			return invalidParams(fmt.Sprintf("Combustível '%s' inválido.", *combustivel), catalog.Suggestions{})
		}
	}

	params := models.SearchParams{
		Make:         *marca,
		Model:        *modelo,
		YearMin:      *anoMin,
		YearMax:      *anoMax,
		MileageMax:   *kmMax,
		PriceMax:     *precoMax,
		Transmission: *caixa,
		Fuel:         *combustivel,
	}

	cat := catalog.Load(cfg.DatabasePath)

	if *fullExtraction {
		utils.Info("Full extraction mode enabled.")
		scraper, err := otomoto.NewScraper(cfg)
		if err != nil {
			utils.Error("Could not start scraper: %v", err)
			printJSON(services.EmptyReport())
			return 1
		}
		defer scraper.Close()

		extraction.NewRunner(cfg, cat, scraper).Run(ctx)
		return 0
	}

	if params.Make != "" {
		result := cat.Validate(params.Make, params.Model)
		if !result.Valid {
			utils.Error("Validation failed: %v", result.Errors)
			printJSON(errorReport{
				PriceReport: services.EmptyReport(),
				Erro:        "Parâmetros inválidos",
				Detalhes:    result.Errors,
				Sugestoes:   result.Suggestions,
			})
			return 1
		}
		if result.BrandValue != "" {
			utils.Info("Brand normalized: '%s' -> '%s'", params.Make, result.BrandValue)
			params.Make = result.BrandValue
		}
		if result.ModelValue != "" {
			utils.Info("Model normalized: '%s' -> '%s'", params.Model, result.ModelValue)
			params.Model = result.ModelValue
		}
	}

	scraper, err := otomoto.NewScraper(cfg)
	if err != nil {
		utils.Error("Could not start scraper: %v", err)
		printJSON(services.EmptyReport())
		return 1
	}
	defer scraper.Close()

	cars, err := scraper.SearchCars(ctx, params, cfg.MaxPages)
	if err != nil {
		// Cancellation mid-search is a deliberate interruption.
		utils.Warn("Operation cancelled by user.")
		printJSON(services.EmptyReport())
		return 0
	}
	if len(cars) == 0 {
		utils.Warn("No cars found for the given criteria.")
		printJSON(services.EmptyReport())
		return 0
	}
	utils.Success("Total cars found: %d", len(cars))

	report := services.GenerateReport(cars)
	utils.Info("Cars considered after cleaning: %d", report.ConsideredCount)
	printJSON(report)
	return 0
}

func invalidParams(detail string, suggestions catalog.Suggestions) int {
	utils.Error("Validation failed: %s", detail)
	printJSON(errorReport{
		PriceReport: services.EmptyReport(),
		Erro:        "Parâmetros inválidos",
		Detalhes:    []string{detail},
		Sugestoes:   suggestions,
	})
	return 1
}

// printJSON writes the single JSON document this tool emits on stdout.
// HTML escaping is off so URLs and accented text survive verbatim.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		utils.Error("Could not encode output: %v", err)
	}
}
