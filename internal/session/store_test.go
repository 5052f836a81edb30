package session_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/internal/session"
	"github.com/leapstack-labs/pgsyntax/internal/testutil"
	"github.com/leapstack-labs/pgsyntax/pkg/cst"
	"github.com/leapstack-labs/pgsyntax/pkg/parser"
)

const uri = "file:///work/query.sql"

func rng(l1, c1, l2, c2 int) *session.Range {
	return &session.Range{
		Start: session.Position{Line: l1, Character: c1},
		End:   session.Position{Line: l2, Character: c2},
	}
}

func requireMatchesParse(t *testing.T, doc *session.Document) {
	t.Helper()
	want := parser.Parse(doc.Text())
	require.True(t, cst.Equal(want.Root, doc.Tree.Root), "want %s\ngot  %s", want.Root, doc.Tree.Root)
	require.Equal(t, want.Diagnostics, doc.Tree.Diagnostics)
}

// ---------- Store Tests ----------

func TestStore_OpenGetClose(t *testing.T) {
	store := session.NewStore(testutil.NewTestLogger(t))

	opened := store.Open(uri, "SELECT 1;", 1)
	assert.Equal(t, uri, opened.URI)
	assert.Equal(t, 1, opened.Version)
	assert.Empty(t, opened.Tree.Diagnostics)

	doc, err := store.Get(uri)
	require.NoError(t, err)
	assert.Same(t, opened, doc)
	assert.Equal(t, []string{uri}, store.URIs())

	require.NoError(t, store.Close(uri))
	_, err = store.Get(uri)
	assert.ErrorIs(t, err, session.ErrDocumentNotFound)
	assert.ErrorIs(t, store.Close(uri), session.ErrDocumentNotFound)
}

func TestStore_ChangeUnknownDocument(t *testing.T) {
	store := session.NewStore(nil)
	_, err := store.Change("file:///missing.sql", 2, session.Change{Text: "SELECT 1;"})
	assert.ErrorIs(t, err, session.ErrDocumentNotFound)
}

func TestStore_IncrementalChanges(t *testing.T) {
	store := session.NewStore(testutil.NewTestLogger(t))
	opened := store.Open(uri, "SELECT a FROM t;\nSELECT b FROM u;\n", 1)

	doc, err := store.Change(uri, 2,
		session.Change{Range: rng(1, 7, 1, 8), Text: "b, c"},
		session.Change{Range: rng(0, 7, 0, 8), Text: "x"},
	)
	require.NoError(t, err)

	assert.Equal(t, "SELECT x FROM t;\nSELECT b, c FROM u;\n", doc.Text())
	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, opened.ID, doc.ID, "the session id survives edits")
	requireMatchesParse(t, doc)
}

func TestStore_FullReplacement(t *testing.T) {
	store := session.NewStore(nil)
	store.Open(uri, "SELECT 1;", 1)

	doc, err := store.Change(uri, 2, session.Change{Text: "SELEC 2;"})
	require.NoError(t, err)
	assert.Equal(t, "SELEC 2;", doc.Text())
	assert.Len(t, doc.Tree.Diagnostics, 1)
}

func TestStore_StaleVersion(t *testing.T) {
	store := session.NewStore(nil)
	store.Open(uri, "SELECT 1;", 5)

	_, err := store.Change(uri, 4, session.Change{Text: "SELECT 2;"})
	assert.ErrorIs(t, err, session.ErrStaleVersion)

	doc, err := store.Get(uri)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", doc.Text(), "a rejected change leaves the document alone")
}

func TestStore_SnapshotsAreImmutable(t *testing.T) {
	store := session.NewStore(nil)
	before := store.Open(uri, "SELECT 1;", 1)

	_, err := store.Change(uri, 2, session.Change{Range: rng(0, 7, 0, 8), Text: "2"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", before.Text())
}

func TestStore_ConcurrentDocuments(t *testing.T) {
	store := session.NewStore(nil)

	const docs = 8
	var wg sync.WaitGroup
	for i := 0; i < docs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := fmt.Sprintf("file:///doc%d.sql", i)
			store.Open(u, "", 0)
			text := ""
			for v, ch := range "SELECT 1;" {
				pos := len(text)
				_, err := store.Change(u, v+1, session.Change{Range: rng(0, pos, 0, pos), Text: string(ch)})
				assert.NoError(t, err)
				text += string(ch)
			}
		}()
	}
	wg.Wait()

	require.Len(t, store.URIs(), docs)
	for _, u := range store.URIs() {
		doc, err := store.Get(u)
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1;", doc.Text())
		requireMatchesParse(t, doc)
	}
}

// ---------- Position Tests ----------

func TestDocument_PositionConversion(t *testing.T) {
	store := session.NewStore(nil)
	// "é" is two bytes and one UTF-16 unit, "😀" is four bytes and two units.
	doc := store.Open(uri, "SELECT 'é';\nSELECT '😀', x;\n", 1)

	tests := []struct {
		name   string
		pos    session.Position
		offset int
	}{
		{"start", session.Position{Line: 0, Character: 0}, 0},
		{"after two-byte rune", session.Position{Line: 0, Character: 9}, 10},
		{"end of first line", session.Position{Line: 0, Character: 11}, 12},
		{"second line start", session.Position{Line: 1, Character: 0}, 13},
		{"after surrogate pair", session.Position{Line: 1, Character: 10}, 25},
		{"x on second line", session.Position{Line: 1, Character: 13}, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offset, doc.PositionToOffset(tt.pos))
			assert.Equal(t, tt.pos, doc.OffsetToPosition(tt.offset))
		})
	}
}

func TestDocument_PositionClamping(t *testing.T) {
	doc := session.NewStore(nil).Open(uri, "SELECT 1;\nSELECT 2;", 1)

	assert.Equal(t, 9, doc.PositionToOffset(session.Position{Line: 0, Character: 99}), "clamps to the line end")
	assert.Equal(t, 19, doc.PositionToOffset(session.Position{Line: 7, Character: 0}), "clamps to the text end")
	assert.Equal(t, session.Position{Line: 1, Character: 9}, doc.OffsetToPosition(500))
}
