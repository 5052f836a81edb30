package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

func TestStore_CommitChecksEntry(t *testing.T) {
	const uri = "file:///work/query.sql"

	tests := []struct {
		name    string
		between func(s *Store)
		want    bool
		current string
	}{
		{"still open", func(*Store) {}, true, "SELECT 2;"},
		{"closed", func(s *Store) { _ = s.Close(uri) }, false, ""},
		{"reopened", func(s *Store) {
			_ = s.Close(uri)
			s.Open(uri, "SELECT 3;", 1)
		}, false, "SELECT 3;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			opened := s.Open(uri, "SELECT 1;", 1)
			e, err := s.entry(uri)
			require.NoError(t, err)

			// a Change that looked the entry up before the store moved on
			tt.between(s)
			e.mu.Lock()
			ok := s.commit(uri, e, newDocument(uri, opened.ID, 2, parser.Parse("SELECT 2;")))
			e.mu.Unlock()
			assert.Equal(t, tt.want, ok)

			doc, err := s.Get(uri)
			if tt.current == "" {
				assert.ErrorIs(t, err, ErrDocumentNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.current, doc.Text())
		})
	}
}
