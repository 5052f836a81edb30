package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

// Sentinel errors returned by the store.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrStaleVersion     = errors.New("stale document version")
)

// entry serialises edits to one document.
type entry struct {
	mu  sync.Mutex
	doc *Document
}

// Store manages open documents. Edits to one document are applied in
// order; different documents are parsed concurrently.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *slog.Logger
}

// NewStore creates an empty store. A nil logger discards log output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Open parses text and registers it under uri, replacing any document
// already open there.
func (s *Store) Open(uri, text string, version int) *Document {
	doc := newDocument(uri, uuid.New(), version, parser.Parse(text))

	s.mu.Lock()
	s.entries[uri] = &entry{doc: doc}
	s.mu.Unlock()

	s.logger.Debug("document opened",
		"uri", uri, "session", doc.ID, "version", version,
		"bytes", len(text), "diagnostics", len(doc.Tree.Diagnostics))
	return doc
}

// Change applies content changes in order and reparses incrementally.
// A version lower than the current one is rejected with ErrStaleVersion.
func (s *Store) Change(uri string, version int, changes ...Change) (*Document, error) {
	e, err := s.entry(uri)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc := e.doc
	if version < doc.Version {
		return nil, fmt.Errorf("%w: %s has version %d, got %d", ErrStaleVersion, uri, doc.Version, version)
	}

	tree := doc.Tree
	for _, c := range changes {
		if c.Range == nil {
			tree = parser.Parse(c.Text)
		} else {
			span := doc.RangeToSpan(*c.Range)
			tree = parser.Reparse(tree, parser.Edit{
				Start:   span.Start,
				OldEnd:  span.End,
				NewEnd:  span.Start + len(c.Text),
				NewText: c.Text,
			})
		}
		// later ranges refer to the text after this change
		doc = newDocument(uri, doc.ID, version, tree)
	}
	doc = newDocument(uri, doc.ID, version, tree)
	if !s.commit(uri, e, doc) {
		return nil, fmt.Errorf("%w: %s was closed during the change", ErrDocumentNotFound, uri)
	}

	s.logger.Debug("document changed",
		"uri", uri, "session", doc.ID, "version", version,
		"changes", len(changes), "diagnostics", len(tree.Diagnostics))
	return doc, nil
}

// Close removes a document.
func (s *Store) Close(uri string) error {
	s.mu.Lock()
	e, ok := s.entries[uri]
	delete(s.entries, uri)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	s.logger.Debug("document closed", "uri", uri, "session", e.snapshot().ID)
	return nil
}

// Get returns the current snapshot of a document.
func (s *Store) Get(uri string) (*Document, error) {
	e, err := s.entry(uri)
	if err != nil {
		return nil, err
	}
	return e.snapshot(), nil
}

// URIs returns the URIs of all open documents, sorted.
func (s *Store) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.entries))
	for uri := range s.entries {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func (s *Store) entry(uri string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	return e, nil
}

// commit stores doc in e if e is still the entry registered for uri. The
// caller holds e.mu; a Close or re-Open since the entry was looked up makes
// the change void.
func (s *Store) commit(uri string, e *entry, doc *Document) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entries[uri] != e {
		return false
	}
	e.doc = doc
	return true
}

func (e *entry) snapshot() *Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}
