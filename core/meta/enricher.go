package meta

import (
	"context"
	"sync"
)

type cacheKey struct {
	artist string
	title  string
}

// Enricher wraps the Last.fm client with a single-slot change-detection
// cache. One song is displayed at a time, so exactly one slot is kept: it
// holds the enrichment of the last completed lookup and is overwritten on
// every track change. Clients depend on immediate invalidation when the
// track changes, so this must not grow into an LRU.
type Enricher struct {
	client *Client

	mu     sync.Mutex
	key    cacheKey
	cached Enrichment
	valid  bool
}

// NewEnricher creates an Enricher around client.
func NewEnricher(client *Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich returns enrichment data for the given artist/title pair, reusing
// the cached result when the pair matches the last completed lookup.
//
// A "no match" lookup is cached as an empty Enrichment so the same track is
// not retried on every poll. A transport error leaves the slot untouched
// and is returned to the caller.
func (e *Enricher) Enrich(artist, title string) (Enrichment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := cacheKey{artist: artist, title: title}
	if e.valid && e.key == key {
		return e.cached, nil
	}

	info, err := e.client.TrackInfo(context.Background(), artist, title)
	if err != nil {
		return Enrichment{}, err
	}

	var enr Enrichment
	if info != nil {
		enr = *info
	}
	e.key = key
	e.cached = enr
	e.valid = true
	return enr, nil
}

// Reset empties the cache slot. Called when the upstream session is rebuilt.
func (e *Enricher) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.key = cacheKey{}
	e.cached = Enrichment{}
	e.valid = false
}
