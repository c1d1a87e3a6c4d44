// Package themuse adapts The Muse public jobs API
// (https://www.themuse.com/api/public/jobs) to the connector contract. The
// API is paginated; pages after the first are fetched concurrently under the
// shared bulkhead.
package themuse

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/connector/translate"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/htmltext"

	"golang.org/x/sync/errgroup"
)

const (
	ID      = "themuse"
	baseURL = "https://www.themuse.com/api/public/jobs"

	// hard cap so a provider pagination bug can't spin us forever
	maxPages    = 5
	pageWorkers = 4
)

type Config struct {
	BaseURL string // test override
	APIKey  string // optional; raises rate limits
}

type Connector struct {
	cfg    Config
	client *connector.HTTPClient
}

func New(cfg Config, client *connector.HTTPClient) *Connector {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	return &Connector{cfg: cfg, client: client}
}

func (c *Connector) ID() string { return ID }

type posting struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Company struct {
		Name string `json:"name"`
	} `json:"company"`
	Locations []struct {
		Name string `json:"name"`
	} `json:"locations"`
	PubDate  string `json:"publication_date"`
	Contents string `json:"contents"`
	Refs     struct {
		LandingPage string `json:"landing_page"`
	} `json:"refs"`
}

type page struct {
	Page      int       `json:"page"`
	PageCount int       `json:"page_count"`
	Results   []posting `json:"results"`
}

func (c *Connector) Search(ctx context.Context, criteria connector.SearchCriteria) ([]domain.Vacancy, error) {
	first, cerr := c.fetchPage(ctx, criteria, 1)
	if cerr != nil {
		return nil, cerr
	}

	pages := first.PageCount
	if pages > maxPages {
		pages = maxPages
	}
	if pages < 1 {
		// empty result sets report page_count 0
		pages = 1
	}

	byPage := make([][]posting, pages+1)
	byPage[1] = first.Results

	if pages > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pageWorkers)
		var mu sync.Mutex
		for n := 2; n <= pages; n++ {
			g.Go(func() error {
				p, perr := c.fetchPage(gctx, criteria, n)
				if perr != nil {
					return perr
				}
				mu.Lock()
				byPage[n] = p.Results
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var out []domain.Vacancy
	kw := keywordTokens(criteria.Keywords)
	for n := 1; n <= pages; n++ {
		for _, p := range byPage[n] {
			v := translatePosting(p)
			if !matchesKeywords(v, kw) {
				continue
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Connector) GetDetails(ctx context.Context, externalID string) (domain.Vacancy, error) {
	raw, ok := strings.CutPrefix(externalID, "themuse:")
	if !ok {
		return domain.Vacancy{}, connector.ParseErr("bad external id %q", externalID)
	}
	var p posting
	if cerr := c.client.GetJSON(ctx, c.cfg.BaseURL+"/"+url.PathEscape(raw), &p); cerr != nil {
		return domain.Vacancy{}, cerr
	}
	return translatePosting(p), nil
}

func (c *Connector) fetchPage(ctx context.Context, criteria connector.SearchCriteria, n int) (*page, *connector.Error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(n))
	q.Set("descending", "true")
	if loc := strings.TrimSpace(criteria.Location); loc != "" {
		q.Set("location", loc)
	}
	if cat := criteria.Params["category"]; cat != "" {
		q.Set("category", cat)
	}
	if co := criteria.Params["company"]; co != "" {
		q.Set("company", co)
	}
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}

	var p page
	if cerr := c.client.GetJSON(ctx, c.cfg.BaseURL+"?"+q.Encode(), &p); cerr != nil {
		return nil, cerr
	}
	return &p, nil
}

// translatePosting never fails; missing fields become zero values.
func translatePosting(p posting) domain.Vacancy {
	names := make([]string, 0, len(p.Locations))
	for _, l := range p.Locations {
		names = append(names, l.Name)
	}
	locs := translate.LocationMap(names)

	v := domain.Vacancy{
		Title:          strings.TrimSpace(p.Name),
		EmployerName:   strings.TrimSpace(p.Company.Name),
		Location:       translate.FormatLocationMap(locs, translate.RemoteFallback),
		Description:    htmltext.Strip(p.Contents),
		SourceURL:      strings.TrimSpace(p.Refs.LandingPage),
		SourceBoard:    ID,
		ExternalID:     fmt.Sprintf("themuse:%d", p.ID),
		EmploymentType: domain.EmploymentUndefined, // the API doesn't expose it
	}
	if t, err := time.Parse(time.RFC3339, p.PubDate); err == nil {
		v.PostedAt = &t
	}
	return v
}

func keywordTokens(keywords string) []string {
	fields := strings.Fields(strings.ToLower(keywords))
	sort.Strings(fields)
	return fields
}

// matchesKeywords keeps a vacancy when every keyword token appears in the
// title or description. No keywords means keep everything.
func matchesKeywords(v domain.Vacancy, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	haystack := strings.ToLower(v.Title + "\n" + v.Description)
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}
