package otomoto

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"otomoto-scraper/config"
	"otomoto-scraper/models"
	"otomoto-scraper/utils"
)

// fullPageSize is the number of listings a full result page carries.
// A page with fewer is treated as the last one.
const fullPageSize = 10

// Scraper drives multi-page retrieval against the site. The plain HTTP
// path (colly) is tried first; when it yields nothing and the browser
// is enabled, the page is re-fetched through Chrome so lazy-loaded
// content gets a chance to appear. The browser allocator lives for the
// whole scraper lifetime and is released in Close.
type Scraper struct {
	cfg         *config.Config
	collector   *colly.Collector
	allocCtx    context.Context
	allocCancel context.CancelFunc

	// Fetch seams. staticFetch is always set; renderedFetch is nil
	// when the browser is disabled, which is what gates the fallback.
	staticFetch   func(pageURL string) (string, error)
	renderedFetch func(pageURL string) (string, error)
}

func NewScraper(cfg *config.Config) (*Scraper, error) {
	c := colly.NewCollector(
		colly.AllowedDomains("www.otomoto.pl", "otomoto.pl"),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(cfg.RequestTimeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*otomoto.pl*",
		Parallelism: 1,
		RandomDelay: 1 * time.Second,
	}); err != nil {
		return nil, fmt.Errorf("could not set limit rule: %w", err)
	}

	s := &Scraper{cfg: cfg, collector: c}
	s.staticFetch = s.fetchStatic

	if cfg.UseBrowser {
		utils.Info("Launching Chrome browser...")
		s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(
			context.Background(),
			utils.StealthOpts(cfg.Headless)...,
		)
		s.renderedFetch = s.fetchRendered
		utils.Success("Browser ready")
	}

	return s, nil
}

func (s *Scraper) Close() {
	if s.allocCancel != nil {
		utils.Info("Closing browser...")
		s.allocCancel()
	}
}

// SearchCars retrieves up to maxPages result pages for the given
// parameters and returns the deduplicated listing set. Fetch failures
// are logged and count as empty pages; pagination stops on an empty
// page, a short page, or the page cap. The returned error is non-nil
// only when ctx was cancelled mid-search.
func (s *Scraper) SearchCars(ctx context.Context, params models.SearchParams, maxPages int) ([]models.Car, error) {
	var all []models.Car

	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			return dedupe(all), ctx.Err()
		}

		pageURL := BuildSearchURL(params, page)
		utils.Info("Fetching page %d: %s", page, pageURL)

		var pageCars []models.Car
		pageHTML, err := s.staticFetch(pageURL)
		if err != nil {
			utils.Error("Static fetch failed (page %d): %v", page, err)
		} else {
			pageCars = ExtractListings(pageHTML)
		}

		if len(pageCars) == 0 && s.renderedFetch != nil {
			utils.Info("Falling back to browser for page %d", page)
			pageHTML, err = s.renderedFetch(pageURL)
			if err != nil {
				utils.Error("Rendered fetch failed (page %d): %v", page, err)
			} else {
				pageCars = ExtractListings(pageHTML)
			}
		}

		if len(pageCars) == 0 {
			break
		}
		all = append(all, pageCars...)

		// A short page is very likely the last one.
		if len(pageCars) < fullPageSize {
			break
		}
	}

	return dedupe(all), nil
}

// fetchStatic does the lightweight HTTP fetch through a one-shot clone
// of the parent collector, so every request inherits the shared limit
// rule but carries its own handlers.
func (s *Scraper) fetchStatic(pageURL string) (string, error) {
	clone := s.collector.Clone()
	clone.SetRequestTimeout(s.cfg.RequestTimeout)
	// Clone inherits the limit rule but not callbacks, so the
	// header/UA rotation goes on every clone.
	extensions.RandomUserAgent(clone)
	extensions.Referer(clone)

	var body string
	var fetchErr error

	clone.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7")
	})
	clone.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	clone.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("request failed (status %d): %w", r.StatusCode, err)
	})

	if err := clone.Visit(pageURL); err != nil {
		return "", err
	}
	clone.Wait()

	return body, fetchErr
}

// fetchRendered loads the page in a fresh browser tab, nudges the
// scroll position to trigger lazy loading and returns the rendered
// document. The wait for the listing container is bounded and
// non-fatal: a slow page still gets extracted from whatever rendered.
func (s *Scraper) fetchRendered(pageURL string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.allocCtx)
	defer tabCancel()

	runCtx, cancel := context.WithTimeout(tabCtx, s.cfg.RequestTimeout)
	defer cancel()

	var pageHTML string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		utils.HideWebDriver(),
		chromedp.Evaluate(`window.scrollBy(0, 600)`, nil),
		chromedp.Sleep(500*time.Millisecond),
		waitForArticles(4*time.Second),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp failed: %w", err)
	}
	return pageHTML, nil
}

func waitForArticles(timeout time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := chromedp.WaitReady("article", chromedp.ByQuery).Do(waitCtx); err != nil {
			utils.Warn("Listing container did not appear in time: %v", err)
		}
		return nil
	})
}

// dedupe collapses listings across pages. The source URL is the key
// when present, otherwise a composite of the visible fields; a later
// duplicate overwrites the earlier one.
func dedupe(cars []models.Car) []models.Car {
	seen := make(map[string]int, len(cars))
	unique := make([]models.Car, 0, len(cars))

	for _, c := range cars {
		key := c.URL
		if key == "" {
			key = fmt.Sprintf("%s_%s_%s", c.Title, c.RawPrice, c.Mileage)
		}
		if idx, ok := seen[key]; ok {
			unique[idx] = c
			continue
		}
		seen[key] = len(unique)
		unique = append(unique, c)
	}

	return unique
}
