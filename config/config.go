package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Site constants.
const (
	BaseURL      = "https://www.otomoto.pl"
	SearchURL    = BaseURL + "/osobowe"
	HomeCurrency = "PLN"
)

// FuelTypeMap translates the CLI fuel token into the site's URL parameter.
// Inputs without a mapping are silently left out of the built URL.
var FuelTypeMap = map[string]string{
	"gasolina":   "petrol",
	"gasoleo":    "diesel",
	"diesel":     "diesel",
	"gpl":        "lpg",
	"hibrido":    "hybrid",
	"eletrico":   "electric",
	"hidrogenio": "hydrogen",
}

// TransmissionMap translates the CLI gearbox token into the site's URL parameter.
var TransmissionMap = map[string]string{
	"manual":     "manual",
	"automatica": "automatic",
}

type Config struct {
	MaxPages       int
	BulkMaxPages   int
	RequestTimeout time.Duration
	BulkDelay      time.Duration
	Headless       bool
	UseBrowser     bool
	DatabasePath   string
	OutputDir      string
	LogPath        string
}

func DefaultConfig() *Config {
	return &Config{
		MaxPages:       5,
		BulkMaxPages:   3,
		RequestTimeout: 30 * time.Second,
		BulkDelay:      2500 * time.Millisecond,
		Headless:       true,
		UseBrowser:     true,
		DatabasePath:   "data/otomoto_database.json",
		OutputDir:      "cars",
		LogPath:        "logs/scraping.log",
	}
}

// Load returns the default config with environment overrides applied.
// A .env file is honoured when present but never required.
func Load() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.MaxPages = getEnvAsInt("OTOMOTO_MAX_PAGES", cfg.MaxPages)
	cfg.BulkMaxPages = getEnvAsInt("OTOMOTO_BULK_MAX_PAGES", cfg.BulkMaxPages)
	cfg.RequestTimeout = getEnvAsDuration("OTOMOTO_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.BulkDelay = getEnvAsDuration("OTOMOTO_BULK_DELAY", cfg.BulkDelay)
	cfg.Headless = getEnvAsBool("OTOMOTO_HEADLESS", cfg.Headless)
	cfg.UseBrowser = getEnvAsBool("OTOMOTO_USE_BROWSER", cfg.UseBrowser)
	cfg.DatabasePath = getEnvAsString("OTOMOTO_DATABASE_PATH", cfg.DatabasePath)
	cfg.OutputDir = getEnvAsString("OTOMOTO_OUTPUT_DIR", cfg.OutputDir)
	cfg.LogPath = getEnvAsString("OTOMOTO_LOG_PATH", cfg.LogPath)
	return cfg
}

func getEnvAsString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return valueBool
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return d
}
