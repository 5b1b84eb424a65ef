// Package session retains analysis results across document versions. The
// analyzer itself is pure; the store owns the sequencing policy: at most
// one result per document is kept, and an update carrying an older version
// than the stored one is discarded without analysis.
package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theTechGoose/rune/analysis"
)

// Document is one tracked document and its latest retained analysis.
type Document struct {
	URI       string
	Version   int
	Result    *analysis.Result
	UpdatedAt time.Time
}

// Store is a concurrency-safe registry of analyzed documents.
type Store struct {
	id     string
	opts   analysis.Options
	logger *slog.Logger

	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStore creates a session store analyzing with the given options.
func NewStore(opts analysis.Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		id:     uuid.New().String(),
		opts:   opts,
		logger: logger,
		docs:   make(map[string]*Document),
	}
}

// ID returns the session's unique identifier.
func (s *Store) ID() string { return s.id }

// Update analyzes text as the given version of uri and retains the result.
// An update at or below the retained version is stale: the text is not
// analyzed and the retained document is returned with ok=false.
func (s *Store) Update(uri string, version int, text string) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, exists := s.docs[uri]; exists && version <= current.Version {
		s.logger.Debug("Discarded stale document version",
			slog.String("uri", uri),
			slog.Int("version", version),
			slog.Int("current", current.Version))
		return current, false
	}

	doc := &Document{
		URI:       uri,
		Version:   version,
		Result:    analysis.AnalyzeWith(text, s.opts),
		UpdatedAt: time.Now(),
	}
	s.docs[uri] = doc

	s.logger.Debug("Analyzed document",
		slog.String("uri", uri),
		slog.Int("version", version),
		slog.Int("diagnostics", len(doc.Result.Diagnostics)))
	return doc, true
}

// Get returns the retained document for uri.
func (s *Store) Get(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// Remove drops uri from the session.
func (s *Store) Remove(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// URIs returns the tracked document URIs, sorted.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Len returns the number of tracked documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
