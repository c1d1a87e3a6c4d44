package dedup

import (
	"context"
	"fmt"
	"log"

	"jobscout-engine/internal/domain"
)

// Store is the slice of persistence the deduplicator needs: every stored job
// URL for one user, already normalized at persist time.
type Store interface {
	JobURLs(ctx context.Context, userID int64) ([]string, error)
}

type Deduplicator struct {
	store Store
}

func New(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// Filter returns the candidates whose normalized source URL has not been seen
// for this user. Order is preserved; duplicates within the batch itself are
// also collapsed (first occurrence wins).
func (d *Deduplicator) Filter(ctx context.Context, userID int64, candidates []domain.Vacancy) ([]domain.Vacancy, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	existing, err := d.store.JobURLs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load job urls: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, u := range existing {
		// stored normalized, but normalize again in case of old rows
		seen[NormalizeURL(u)] = true
	}

	out := make([]domain.Vacancy, 0, len(candidates))
	for _, v := range candidates {
		key := NormalizeURL(v.SourceURL)
		if key == "" {
			// no URL means nothing to dedupe on; keep it
			out = append(out, v)
			continue
		}
		if seen[key] {
			log.Printf("[dedup] skip known url=%q board=%s", key, v.SourceBoard)
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out, nil
}
