package emailalerts

import (
	"bytes"
	"encoding/base64"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

type message struct {
	Subject string
	Date    time.Time
	Raw     []byte // full RFC822 bytes
}

type jobLink struct {
	URL  string
	Text string // anchor text, usually the posting title
}

var (
	reHref = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"'#]+)["'][^>]*>(.*?)</a>`)
	reTags = regexp.MustCompile(`(?is)<[^>]+>`)
)

// job-page heuristics: keep apply/posting links, drop footer plumbing.
var junkFragments = []string{
	"unsubscribe", "preferences", "privacy", "terms", "view-in-browser",
	"tracking", "pixel", "beacon", "/alerts", "/settings", "/help", "/legal",
}

var jobFragments = []string{
	"/jobs/", "/job/", "/careers", "viewjob", "/postings/", "/apply",
	"currentjobid",
}

func extractJobLinks(m message) []jobLink {
	body := htmlBody(m.Raw)
	if body == "" {
		return nil
	}

	var out []jobLink
	for _, match := range reHref.FindAllStringSubmatch(body, -1) {
		href := strings.TrimSpace(html.UnescapeString(match[1]))
		if href == "" || !strings.HasPrefix(href, "http") {
			continue
		}
		if !looksLikeJobURL(href) {
			continue
		}
		txt := reTags.ReplaceAllString(match[2], " ")
		txt = strings.Join(strings.Fields(html.UnescapeString(txt)), " ")
		if looksLikeJunkTitle(txt) {
			txt = ""
		}
		out = append(out, jobLink{URL: href, Text: txt})
	}
	return out
}

func looksLikeJobURL(u string) bool {
	lu := strings.ToLower(u)
	for _, junk := range junkFragments {
		if strings.Contains(lu, junk) {
			return false
		}
	}
	for _, frag := range jobFragments {
		if strings.Contains(lu, frag) {
			return true
		}
	}
	return false
}

func looksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return l == "" || strings.Contains(l, "view job") || strings.Contains(l, "see all") ||
		strings.Contains(l, "apply now")
}

// htmlBody digs the text/html part out of a raw RFC822 message, decoding
// transfer encodings along the way. Falls back to the whole body.
func htmlBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	body, _ := io.ReadAll(io.LimitReader(msg.Body, 6<<20))
	_, htmlPart := textParts(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), body)
	if htmlPart != "" {
		return htmlPart
	}
	return string(body)
}

func textParts(contentType, cte string, body []byte) (plain, htmlPart string) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(decodeCTE(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeCTE(body, cte)), ""
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			b, _ := io.ReadAll(io.LimitReader(p, 6<<20))
			pl, ht := textParts(p.Header.Get("Content-Type"), p.Header.Get("Content-Transfer-Encoding"), b)
			if len(pl) > len(plain) {
				plain = pl
			}
			if len(ht) > len(htmlPart) {
				htmlPart = ht
			}
		}
		return plain, htmlPart
	}

	s := string(decodeCTE(body, cte))
	if strings.HasPrefix(mediaType, "text/html") {
		return "", s
	}
	return s, ""
}

func decodeCTE(b []byte, cte string) []byte {
	switch strings.ToLower(strings.TrimSpace(cte)) {
	case "base64":
		out, _ := io.ReadAll(io.LimitReader(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b)), 6<<20))
		return out
	case "quoted-printable":
		out, _ := io.ReadAll(io.LimitReader(quotedprintable.NewReader(bytes.NewReader(b)), 6<<20))
		return out
	default:
		return b
	}
}
