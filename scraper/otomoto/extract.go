package otomoto

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"otomoto-scraper/config"
	"otomoto-scraper/models"
	"otomoto-scraper/utils"
)

var (
	priceRe   = regexp.MustCompile(`(?i)(\d[\d\s.]*)\s*[:|-]?\s*(PLN|EUR|zł)`)
	yearRe    = regexp.MustCompile(`\b(19\d{2}|20[0-3]\d)\b`)
	mileageRe = regexp.MustCompile(`(\d[\d\s.]*)\s*km\b`)
)

// polishFuels is the fixed candidate list for the HTML fallback.
// Order matters: the first substring hit wins.
var polishFuels = []string{"Benzyna", "Diesel", "Hybryda", "Elektryczny", "LPG"}

// minSanePrice filters out accessories and obvious garbage that slip
// into the article text (in home currency).
const minSanePrice = 500

// ExtractListings turns raw page HTML into car records. The embedded
// JSON payload is the primary source; the visual markup parse is only
// used when the payload yields nothing.
func ExtractListings(pageHTML string) []models.Car {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		utils.Warn("Could not parse page HTML: %v", err)
		return nil
	}

	cars := extractNextData(doc)
	if len(cars) == 0 {
		cars = extractFromHTML(doc)
	}
	return cars
}

// extractNextData pulls listings out of the page's __NEXT_DATA__ script.
// The payload's surrounding structure changes between deployments, so
// instead of fixed paths the whole tree is walked for collections that
// look like listing arrays.
func extractNextData(doc *goquery.Document) []models.Car {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil
	}

	var data interface{}
	if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
		utils.Warn("__NEXT_DATA__ is not valid JSON: %v", err)
		return nil
	}

	var cars []models.Car
	walkListingNodes(data, func(node map[string]interface{}) {
		_, hasTitle := node["title"]
		_, hasPrice := node["price"]
		_, hasURL := node["url"]
		_, hasID := node["id"]
		if !hasTitle || !hasPrice || (!hasURL && !hasID) {
			return
		}
		if car, ok := parseNode(node); ok {
			cars = append(cars, car)
		}
	})

	if len(cars) > 0 {
		utils.Info("Extracted %d listings via __NEXT_DATA__", len(cars))
	}
	return cars
}

// walkListingNodes recursively descends an untyped JSON tree. Objects
// carrying an "edges" list yield every edge's "node"; objects carrying
// a bare "list" array yield its object items. Descent continues into
// every nested value so listings survive being wrapped in unknown
// structure.
func walkListingNodes(v interface{}, visit func(map[string]interface{})) {
	switch t := v.(type) {
	case map[string]interface{}:
		if edges, ok := t["edges"].([]interface{}); ok {
			for _, e := range edges {
				if edge, ok := e.(map[string]interface{}); ok {
					if node, ok := edge["node"].(map[string]interface{}); ok {
						visit(node)
					}
				}
			}
		} else if list, ok := t["list"].([]interface{}); ok {
			for _, item := range list {
				if node, ok := item.(map[string]interface{}); ok {
					visit(node)
				}
			}
		}
		for _, child := range t {
			walkListingNodes(child, visit)
		}
	case []interface{}:
		for _, item := range t {
			walkListingNodes(item, visit)
		}
	}
}

// parseNode converts one candidate payload object into a Car. A false
// return discards only this record; the batch always continues.
func parseNode(node map[string]interface{}) (models.Car, bool) {
	title, _ := node["title"].(string)
	nodeURL, _ := node["url"].(string)

	// Two known price shapes: a nested amount object with units and
	// currency code, or a bare number/string with a sibling currency.
	var amount float64
	currency := config.HomeCurrency
	switch price := node["price"].(type) {
	case map[string]interface{}:
		amountObj, ok := price["amount"].(map[string]interface{})
		if !ok {
			return models.Car{}, false
		}
		v, ok := toFloat(amountObj["units"])
		if !ok {
			return models.Car{}, false
		}
		amount = v
		if code, ok := amountObj["currencyCode"].(string); ok && code != "" {
			currency = code
		}
	case float64, string:
		v, ok := toFloat(price)
		if !ok {
			return models.Car{}, false
		}
		amount = v
		if code, ok := node["currency"].(string); ok && code != "" {
			currency = code
		}
	default:
		return models.Car{}, false
	}

	if amount == 0 {
		return models.Car{}, false
	}

	var year int
	var mileage, fuel string
	if params, ok := node["parameters"].([]interface{}); ok {
		for _, p := range params {
			entry, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			key, _ := entry["key"].(string)
			val := entry["displayValue"]
			// An empty displayValue counts as missing.
			if s, ok := val.(string); val == nil || (ok && s == "") {
				val = entry["value"]
			}
			if val == nil {
				continue
			}
			switch key {
			case "year":
				if y, ok := toFloat(val); ok {
					year = int(y)
				}
			case "mileage":
				mileage = toString(val) + " km"
			case "fuel_type":
				fuel = toString(val)
			}
		}
	}

	return models.Car{
		Title:    title,
		RawPrice: fmt.Sprintf("%.0f %s", amount, currency),
		Price:    amount,
		Currency: currency,
		Year:     year,
		Mileage:  mileage,
		Fuel:     fuel,
		URL:      nodeURL,
	}, true
}

// extractFromHTML is the visual fallback: one candidate per article
// element, parsed from its rendered text. A failed article is skipped,
// never fatal.
func extractFromHTML(doc *goquery.Document) []models.Car {
	var cars []models.Car

	articles := doc.Find("article")
	utils.Info("Scanning %d HTML articles", articles.Length())

	articles.Each(func(_ int, article *goquery.Selection) {
		link := article.Find("a[href]").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")

		title := "N/A"
		if heading := article.Find("h1, h2, h3").First(); heading.Length() > 0 {
			title = strings.TrimSpace(heading.Text())
		}

		text := textWithSpaces(article)

		priceMatch := priceRe.FindStringSubmatch(text)
		if priceMatch == nil {
			return
		}
		cleaned := strings.NewReplacer(" ", "", "\u00a0", "", ".", "", ",", ".").Replace(priceMatch[1])
		// Listing cards sometimes glue the year onto the price
		// (e.g. "201599000" for a 2015 car at 99 000).
		if len(cleaned) > 7 && strings.HasPrefix(cleaned, "20") {
			cleaned = cleaned[4:]
		}
		price, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || price < minSanePrice {
			return
		}

		currency := strings.ToUpper(priceMatch[2])
		if strings.Contains(currency, "ZŁ") {
			currency = config.HomeCurrency
		}

		var year int
		if m := yearRe.FindStringSubmatch(text); m != nil {
			year, _ = strconv.Atoi(m[1])
		}

		var mileage string
		if m := mileageRe.FindStringSubmatch(text); m != nil {
			mileage = strings.TrimSpace(m[1]) + " km"
		}

		var fuel string
		lowerText := strings.ToLower(text)
		for _, name := range polishFuels {
			if strings.Contains(lowerText, strings.ToLower(name)) {
				fuel = name
				break
			}
		}

		cars = append(cars, models.Car{
			Title:    title,
			RawPrice: fmt.Sprintf("%.0f %s", price, currency),
			Price:    price,
			Currency: currency,
			Year:     year,
			Mileage:  mileage,
			Fuel:     fuel,
			URL:      href,
		})
	})

	return cars
}

// textWithSpaces flattens a selection's text nodes with single-space
// separators. goquery's Text() concatenates adjacent elements without
// any separator, which breaks the regex matching above.
func textWithSpaces(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		collectText(node, &b)
	}
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
