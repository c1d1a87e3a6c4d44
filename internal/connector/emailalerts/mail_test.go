package emailalerts

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alertHTML = `<html><body>
<a href="https://www.example.com/jobs/view/12345?utm_source=email">Senior Go Engineer - Acme</a>
<a href="https://www.example.com/jobs/view/67890">Backend Developer</a>
<a href="https://www.example.com/unsubscribe?token=x">Unsubscribe</a>
<a href="https://www.example.com/settings">Manage alerts</a>
<a href="https://www.example.com/jobs/view/99999">View job</a>
</body></html>`

func rawMessage(body string) []byte {
	return []byte("Subject: New jobs at Acme\r\nContent-Type: text/html; charset=utf-8\r\n\r\n" + body)
}

func TestExtractJobLinks(t *testing.T) {
	links := extractJobLinks(message{Raw: rawMessage(alertHTML)})
	require.Len(t, links, 3)

	assert.Equal(t, "https://www.example.com/jobs/view/12345?utm_source=email", links[0].URL)
	assert.Equal(t, "Senior Go Engineer - Acme", links[0].Text)
	assert.Equal(t, "Backend Developer", links[1].Text)
	// junk anchor text is dropped, not the link
	assert.Equal(t, "https://www.example.com/jobs/view/99999", links[2].URL)
	assert.Equal(t, "", links[2].Text)
}

func TestExtractJobLinksMultipart(t *testing.T) {
	raw := []byte("Subject: digest\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUND\r\n\r\n" +
		"--BOUND\r\nContent-Type: text/plain\r\n\r\nplain text\r\n" +
		"--BOUND\r\nContent-Type: text/html\r\n\r\n" +
		`<a href="https://jobs.example.io/postings/abc">Platform Engineer</a>` + "\r\n" +
		"--BOUND--\r\n")

	links := extractJobLinks(message{Raw: raw})
	require.Len(t, links, 1)
	assert.Equal(t, "https://jobs.example.io/postings/abc", links[0].URL)
	assert.Equal(t, "Platform Engineer", links[0].Text)
}

func TestExtractJobLinksQuotedPrintable(t *testing.T) {
	raw := []byte("Subject: alert\r\n" +
		"Content-Type: text/html\r\nContent-Transfer-Encoding: quoted-printable\r\n\r\n" +
		`<a href=3D"https://www.example.com/jobs/view/1">Go Dev</a>`)

	links := extractJobLinks(message{Raw: raw})
	require.Len(t, links, 1)
	assert.Equal(t, "https://www.example.com/jobs/view/1", links[0].URL)
}

func TestEmployerFromSubject(t *testing.T) {
	assert.Equal(t, "Acme", employerFromSubject("New jobs at Acme"))
	assert.Equal(t, "Globex", employerFromSubject("Globex is hiring near you"))
	assert.Equal(t, "", employerFromSubject("Your weekly job digest"))
}

func TestSearchMatchesKeywordsAgainstTitles(t *testing.T) {
	assert.True(t, matchesKeywords("Senior Go Engineer", []string{"go"}))
	assert.True(t, matchesKeywords("anything", nil))
	assert.False(t, matchesKeywords("Product Designer", []string{"golang", "backend"}))
}

func TestWatchCancelClosesOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	closed := make(chan struct{})
	stop := watchCancel(ctx, func() error { close(closed); return nil })
	defer stop()

	cancel()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("connection not closed on cancellation")
	}
}

func TestWatchCancelReleasedWhenFetchReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closed atomic.Bool
	stop := watchCancel(ctx, func() error { closed.Store(true); return nil })
	// fetchRecent returning runs the deferred stop; a later cancellation of the
	// caller's context must not touch the already-closed client
	assert.True(t, stop())
	cancel()
	assert.False(t, closed.Load())
}

func TestMessageDateFallback(t *testing.T) {
	m := message{Subject: "x", Date: time.Time{}}
	assert.True(t, m.Date.IsZero())
}
