package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"otomoto-scraper/utils"
)

// ModelEntry is one model of a brand as stored in the reference database.
type ModelEntry struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Brand holds the canonical URL-safe value, the display text and the
// ordered model list for one brand.
type Brand struct {
	Value  string       `json:"brand_value"`
	Text   string       `json:"brand_text"`
	Models []ModelEntry `json:"models"`
}

// Catalog is the brand/model reference database. It is loaded once at
// startup and read-only afterwards. Brand key order follows the file,
// which is why loading goes through a token-level decode instead of a
// plain map unmarshal.
type Catalog struct {
	keys   []string
	brands map[string]Brand
}

// Suggestions accompany a failed validation.
type Suggestions struct {
	Brands []string `json:"marcas,omitempty"`
	Models []string `json:"modelos_disponiveis,omitempty"`
}

// Result is the outcome of validating brand/model input.
type Result struct {
	Valid       bool
	BrandValue  string
	ModelValue  string
	Errors      []string
	Suggestions Suggestions
}

// Load reads the reference database from path. A missing or unreadable
// file degrades to an empty catalog with a warning: every brand lookup
// will then fail validation, but the process can still run.
func Load(path string) *Catalog {
	f, err := os.Open(path)
	if err != nil {
		utils.Warn("Reference database not found at %s: %v", path, err)
		return &Catalog{brands: map[string]Brand{}}
	}
	defer f.Close()

	cat, err := decode(f)
	if err != nil {
		utils.Warn("Could not parse reference database %s: %v", path, err)
		return &Catalog{brands: map[string]Brand{}}
	}
	utils.Info("Reference database loaded: %d brands", len(cat.keys))
	return cat
}

// decode walks the JSON token stream so brand key order is preserved.
func decode(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	cat := &Catalog{brands: map[string]Brand{}}

	// outer object
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if key != "brands" {
			// skip unknown top-level sections
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, _ := nameTok.(string)
			var b Brand
			if err := dec.Decode(&b); err != nil {
				return nil, fmt.Errorf("brand %q: %w", name, err)
			}
			cat.keys = append(cat.keys, name)
			cat.brands[name] = b
		}
		if _, err := dec.Token(); err != nil { // closing }
			return nil, err
		}
	}
	return cat, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("unexpected token %v, want %v", tok, want)
	}
	return nil
}

// Keys returns the brand keys in file order.
func (c *Catalog) Keys() []string {
	return c.keys
}

// Brand returns the entry for a catalog key.
func (c *Catalog) Brand(key string) (Brand, bool) {
	b, ok := c.brands[key]
	return b, ok
}

// Len returns the number of brands.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// Validate normalizes brand/model input against the catalog.
// Empty brand input is trivially valid. Matching is case-insensitive
// against the catalog key, the canonical value and the display text;
// the first match in catalog order wins.
func (c *Catalog) Validate(brandInput, modelInput string) Result {
	result := Result{Valid: true}

	if brandInput == "" {
		return result
	}

	brandLower := strings.ToLower(strings.TrimSpace(brandInput))
	var found *Brand
	for _, key := range c.keys {
		b := c.brands[key]
		if strings.ToLower(key) == brandLower ||
			b.Value == brandLower ||
			strings.ToLower(b.Text) == brandLower {
			found = &b
			result.BrandValue = b.Value
			break
		}
	}

	if found == nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Marca '%s' não encontrada.", brandInput))
		n := len(c.keys)
		if n > 5 {
			n = 5
		}
		result.Suggestions.Brands = append([]string{}, c.keys[:n]...)
		return result
	}

	if modelInput != "" {
		modelLower := strings.ToLower(strings.TrimSpace(modelInput))
		matched := false
		for _, m := range found.Models {
			if strings.ToLower(m.Text) == modelLower || strings.ToLower(m.Value) == modelLower {
				result.ModelValue = m.Value
				matched = true
				break
			}
		}
		if !matched {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Modelo '%s' não encontrado para a marca.", modelInput))
			for _, m := range found.Models {
				result.Suggestions.Models = append(result.Suggestions.Models, m.Text)
			}
		}
	}

	return result
}
