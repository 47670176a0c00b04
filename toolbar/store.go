package toolbar

import (
	"sync"
	"time"
)

// Summary describes one processed toolbar.
type Summary struct {
	StoreID   string        `json:"store_id" msgpack:"store_id"`
	Method    string        `json:"method" msgpack:"method"`
	Path      string        `json:"path" msgpack:"path"`
	Status    int           `json:"status" msgpack:"status"`
	StartedAt time.Time     `json:"started_at" msgpack:"started_at"`
	Duration  time.Duration `json:"duration" msgpack:"duration"`
	// Spliced is true when the toolbar was inserted into the response body.
	Spliced bool `json:"spliced" msgpack:"spliced"`
	// DebugURI is the out-of-band retrieval URI, if the toolbar was persisted.
	DebugURI string `json:"debug_uri,omitempty" msgpack:"debug_uri,omitempty"`
}

// Store keeps the most recent toolbars so their panels can be rendered after the response
// was sent.
//
// The capacity is taken from each added toolbar's Config.ResultsStoreSize, so configuration
// reloads take effect on the next request. Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	order []string
	items map[string]storeEntry
}

type storeEntry struct {
	toolbar *Toolbar
	summary Summary
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{items: make(map[string]storeEntry)}
}

// Add stores t, evicting the oldest entries beyond capacity. A capacity of zero keeps
// nothing.
func (s *Store) Add(t *Toolbar, sum Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.items[t.ID] = storeEntry{toolbar: t, summary: sum}
	s.trim(t.Config.ResultsStoreSize)
}

func (s *Store) trim(size int) {
	if size < 0 {
		size = 0
	}
	for len(s.order) > size {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns the stored toolbar with the given id.
func (s *Store) Get(id string) (*Toolbar, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	return e.toolbar, ok
}

// Summaries returns the stored summaries, newest first.
func (s *Store) Summaries() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Summary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.items[s.order[i]].summary)
	}
	return out
}

// Len returns the number of stored toolbars.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
