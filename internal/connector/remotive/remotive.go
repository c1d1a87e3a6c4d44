// Package remotive adapts the Remotive remote-jobs API
// (https://remotive.com/api/remote-jobs) to the connector contract.
package remotive

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/connector/translate"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/htmltext"
)

const (
	ID      = "remotive"
	baseURL = "https://remotive.com/api/remote-jobs"

	// Remotive returns everything in one page; cap what we pull anyway.
	maxResults = 100
)

type Config struct {
	BaseURL string // test override
	Limit   int
}

type Connector struct {
	cfg    Config
	client *connector.HTTPClient
}

func New(cfg Config, client *connector.HTTPClient) *Connector {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Limit <= 0 || cfg.Limit > maxResults {
		cfg.Limit = maxResults
	}
	return &Connector{cfg: cfg, client: client}
}

func (c *Connector) ID() string { return ID }

type posting struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	JobType     string `json:"job_type"`
	PubDate     string `json:"publication_date"`
	Location    string `json:"candidate_required_location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
}

type response struct {
	Jobs []posting `json:"jobs"`
}

func (c *Connector) Search(ctx context.Context, criteria connector.SearchCriteria) ([]domain.Vacancy, error) {
	q := url.Values{}
	if kw := strings.TrimSpace(criteria.Keywords); kw != "" {
		q.Set("search", kw)
	}
	if cat := criteria.Params["category"]; cat != "" {
		q.Set("category", cat)
	}
	q.Set("limit", strconv.Itoa(c.cfg.Limit))

	var resp response
	if cerr := c.client.GetJSON(ctx, c.cfg.BaseURL+"?"+q.Encode(), &resp); cerr != nil {
		return nil, cerr
	}

	out := make([]domain.Vacancy, 0, len(resp.Jobs))
	for _, p := range resp.Jobs {
		v := translatePosting(p)
		if loc := strings.TrimSpace(criteria.Location); loc != "" &&
			!strings.Contains(strings.ToLower(v.Location), strings.ToLower(loc)) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// GetDetails refetches the board and picks the posting out; Remotive has no
// per-job endpoint.
func (c *Connector) GetDetails(ctx context.Context, externalID string) (domain.Vacancy, error) {
	var resp response
	if cerr := c.client.GetJSON(ctx, c.cfg.BaseURL+"?limit="+strconv.Itoa(maxResults), &resp); cerr != nil {
		return domain.Vacancy{}, cerr
	}
	for _, p := range resp.Jobs {
		if externalKey(p.ID) == externalID {
			return translatePosting(p), nil
		}
	}
	return domain.Vacancy{}, connector.ParseErr("posting %q not found", externalID)
}

func externalKey(id int64) string { return fmt.Sprintf("remotive:%d", id) }

// translatePosting normalizes one raw payload. Missing optional fields become
// zero values; it never fails.
func translatePosting(p posting) domain.Vacancy {
	locs := translate.LocationMap(strings.Split(p.Location, ","))
	v := domain.Vacancy{
		Title:          strings.TrimSpace(p.Title),
		EmployerName:   strings.TrimSpace(p.CompanyName),
		Location:       translate.FormatLocationMap(locs, translate.RemoteFallback),
		Description:    htmltext.Strip(p.Description),
		SourceURL:      strings.TrimSpace(p.URL),
		SourceBoard:    ID,
		ExternalID:     externalKey(p.ID),
		Salary:         strings.TrimSpace(p.Salary),
		EmploymentType: translate.EmploymentType(p.JobType),
	}
	// publication_date comes without a zone, e.g. 2026-02-15T10:23:26
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, p.PubDate); err == nil {
			v.PostedAt = &t
			break
		}
	}
	return v
}
