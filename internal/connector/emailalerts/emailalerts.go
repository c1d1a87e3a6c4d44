// Package emailalerts treats a mailbox of job-alert emails (LinkedIn, Indeed
// digests and the like) as a job board: search scans recent alert mail and
// extracts posting links.
package emailalerts

import (
	"context"
	"crypto/sha1"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"jobscout-engine/internal/connector"
	"jobscout-engine/internal/dedup"
	"jobscout-engine/internal/domain"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

const ID = "emailalerts"

type Config struct {
	Addr        string // host:993
	Username    string
	Password    string
	Mailbox     string // default INBOX
	MaxMessages int    // default 50
	MaxAgeDays  int    // default 7
}

type Connector struct {
	cfg Config
}

func New(cfg Config) *Connector {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 50
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 7
	}
	return &Connector{cfg: cfg}
}

func (c *Connector) ID() string { return ID }

func (c *Connector) Search(ctx context.Context, criteria connector.SearchCriteria) ([]domain.Vacancy, error) {
	mailbox := c.cfg.Mailbox
	if mb := criteria.Params["mailbox"]; mb != "" {
		mailbox = mb
	}

	msgs, cerr := c.fetchRecent(ctx, mailbox)
	if cerr != nil {
		return nil, cerr
	}

	kw := strings.Fields(strings.ToLower(criteria.Keywords))
	seen := map[string]bool{}
	var out []domain.Vacancy
	for _, m := range msgs {
		for _, link := range extractJobLinks(m) {
			key := dedup.NormalizeURL(link.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
			title := link.Text
			if title == "" {
				title = m.Subject
			}
			if !matchesKeywords(title, kw) {
				continue
			}
			posted := m.Date
			out = append(out, domain.Vacancy{
				Title:          title,
				EmployerName:   employerFromSubject(m.Subject),
				Location:       strings.TrimSpace(criteria.Location),
				SourceURL:      link.URL,
				SourceBoard:    ID,
				ExternalID:     "email:" + hashString(key),
				PostedAt:       &posted,
				EmploymentType: domain.EmploymentUndefined,
			})
		}
	}
	return out, nil
}

// GetDetails rescans recent mail for the posting; alert emails carry no
// richer detail view.
func (c *Connector) GetDetails(ctx context.Context, externalID string) (domain.Vacancy, error) {
	vacs, err := c.Search(ctx, connector.SearchCriteria{})
	if err != nil {
		return domain.Vacancy{}, err
	}
	for _, v := range vacs {
		if v.ExternalID == externalID {
			return v, nil
		}
	}
	return domain.Vacancy{}, connector.ParseErr("posting %q not found in recent mail", externalID)
}

func (c *Connector) fetchRecent(ctx context.Context, mailbox string) ([]message, *connector.Error) {
	if c.cfg.Addr == "" || c.cfg.Username == "" || c.cfg.Password == "" {
		return nil, connector.Blocked("imap credentials not configured")
	}

	cl, err := imapclient.DialTLS(c.cfg.Addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	})
	if err != nil {
		return nil, connector.NetworkErr("imap dial: %v", err)
	}
	defer func() { _ = cl.Close() }()

	stop := watchCancel(ctx, cl.Close)
	defer stop()

	if err := cl.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		return nil, connector.Blocked(fmt.Sprintf("imap login rejected: %v", err))
	}
	if _, err := cl.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, connector.NetworkErr("imap select %s: %v", mailbox, err)
	}

	cutoff := time.Now().AddDate(0, 0, -c.cfg.MaxAgeDays)
	searchData, err := cl.UIDSearch(&imap.SearchCriteria{Since: cutoff}, nil).Wait()
	if err != nil {
		return nil, connector.NetworkErr("imap search: %v", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// newest first, capped
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > c.cfg.MaxMessages {
		uids = uids[:c.cfg.MaxMessages]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetchCmd := cl.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	var out []message
	for {
		select {
		case <-ctx.Done():
			return nil, connector.NetworkErr("imap fetch: %v", ctx.Err())
		default:
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, connector.NetworkErr("imap fetch collect: %v", err)
		}

		var m message
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Raw = append([]byte(nil), b...)
		}
		if m.Date.IsZero() {
			m.Date = time.Now()
		}
		out = append(out, m)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, connector.NetworkErr("imap fetch close: %v", err)
	}
	return out, nil
}

// watchCancel closes the connection when ctx is cancelled so blocked imap
// waits return. The returned stop releases the watcher; fetchRecent defers it
// so no goroutine outlives the fetch.
func watchCancel(ctx context.Context, closeConn func() error) func() bool {
	return context.AfterFunc(ctx, func() { _ = closeConn() })
}

func matchesKeywords(title string, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	l := strings.ToLower(title)
	for _, tok := range tokens {
		if strings.Contains(l, tok) {
			return true
		}
	}
	return false
}

// employerFromSubject pulls a company name out of alert subjects like
// "New jobs at Acme" or "Acme is hiring". Best effort; empty when unclear.
func employerFromSubject(subject string) string {
	l := strings.ToLower(subject)
	if i := strings.Index(l, " at "); i >= 0 {
		return strings.Trim(strings.TrimSpace(subject[i+4:]), ".!")
	}
	if i := strings.Index(l, " is hiring"); i >= 0 {
		return strings.TrimSpace(subject[:i])
	}
	return ""
}

func hashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
