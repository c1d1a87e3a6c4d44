package dedup

import (
	"net/url"
	"sort"
	"strings"
)

// tracking params that providers and email clients tack onto posting links.
// vjk is Indeed's job key duplicate param; mc_* is Mailchimp; mkt_tok Marketo.
var trackingParams = map[string]bool{
	"ref":     true,
	"gclid":   true,
	"fbclid":  true,
	"msclkid": true,
	"vjk":     true,
	"mc_cid":  true,
	"mc_eid":  true,
	"mkt_tok": true,
}

// NormalizeURL canonicalizes a posting URL so the same job seen twice with
// different tracking params compares equal. It is a projection:
// NormalizeURL(NormalizeURL(u)) == NormalizeURL(u). Strings that don't parse
// as URLs pass through unchanged (fail open).
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()

	// trailing slash on a path is the same posting
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}
