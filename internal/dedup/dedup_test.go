package dedup

import (
	"context"
	"testing"

	"jobscout-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	urls []string
	err  error
}

func (f *fakeStore) JobURLs(ctx context.Context, userID int64) ([]string, error) {
	return f.urls, f.err
}

func vac(url string) domain.Vacancy {
	return domain.Vacancy{Title: "Engineer", SourceURL: url, SourceBoard: "remotive"}
}

func TestFilterDropsKnownURLs(t *testing.T) {
	d := New(&fakeStore{urls: []string{"https://example.com/jobs/1"}})

	out, err := d.Filter(context.Background(), 1, []domain.Vacancy{
		vac("https://example.com/jobs/1?utm_source=feed"), // same job, new tracking params
		vac("https://example.com/jobs/2"),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "https://example.com/jobs/2", out[0].SourceURL)
}

func TestFilterCollapsesBatchDuplicates(t *testing.T) {
	d := New(&fakeStore{})

	out, err := d.Filter(context.Background(), 1, []domain.Vacancy{
		vac("https://example.com/jobs/7"),
		vac("https://example.com/jobs/7?ref=mail"),
		vac("https://example.com/jobs/8"),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "https://example.com/jobs/7", out[0].SourceURL)
	assert.Equal(t, "https://example.com/jobs/8", out[1].SourceURL)
}

func TestFilterKeepsOrderAndEmptyURLs(t *testing.T) {
	d := New(&fakeStore{urls: []string{"https://example.com/jobs/2"}})

	out, err := d.Filter(context.Background(), 1, []domain.Vacancy{
		vac("https://example.com/jobs/3"),
		vac(""),
		vac("https://example.com/jobs/2"),
		vac("https://example.com/jobs/1"),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "https://example.com/jobs/3", out[0].SourceURL)
	assert.Equal(t, "", out[1].SourceURL)
	assert.Equal(t, "https://example.com/jobs/1", out[2].SourceURL)
}

func TestFilterEmptyInput(t *testing.T) {
	d := New(&fakeStore{})
	out, err := d.Filter(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
