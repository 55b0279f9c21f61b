package tree

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinfolk/kinfolk/internal/document"
)

func newTestService(t *testing.T, keep int) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), Options{RevisionKeep: keep, MaxDocumentBytes: 1 << 16})
}

func sampleDocument(t *testing.T) []byte {
	t.Helper()
	data, err := document.Encode(document.SampleTree())
	require.NoError(t, err)
	return data
}

func TestCreateSeedsEmptyDocument(t *testing.T) {
	s := newTestService(t, 3)
	ctx := context.Background()

	tr, err := s.Create(ctx, "user_a", "Horvat family")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tr.ID, "tree_"))

	rev, err := s.LatestDocument(ctx, tr.ID, "user_a")
	require.NoError(t, err)
	parsed, err := document.Decode(rev.Document)
	require.NoError(t, err)
	assert.Empty(t, parsed.Persons)
	assert.Equal(t, 1, parsed.NextID)
}

func TestOwnershipEnforced(t *testing.T) {
	s := newTestService(t, 3)
	ctx := context.Background()
	tr, err := s.Create(ctx, "user_a", "Mine")
	require.NoError(t, err)

	_, err = s.Get(ctx, tr.ID, "user_b")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.SaveDocument(ctx, tr.ID, "user_b", sampleDocument(t), "http")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, s.Delete(ctx, tr.ID, "user_b"), ErrForbidden)
	_, err = s.Get(ctx, "tree_missing", "user_a")
	assert.ErrorIs(t, err, ErrNotFound)

	trees, err := s.List(ctx, "user_b")
	require.NoError(t, err)
	assert.Empty(t, trees)
}

func TestSaveDocumentKeepsNewestRevisions(t *testing.T) {
	s := newTestService(t, 3)
	ctx := context.Background()
	tr, err := s.Create(ctx, "user_a", "Family")
	require.NoError(t, err)

	var last *Revision
	for range 4 {
		last, err = s.SaveDocument(ctx, tr.ID, "user_a", sampleDocument(t), "autosave")
		require.NoError(t, err)
	}
	assert.Equal(t, 7, last.PersonCount)

	revs, err := s.ListRevisions(ctx, tr.ID, "user_a")
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, last.ID, revs[0].ID)
	assert.Nil(t, revs[0].Document)

	got, err := s.GetRevision(ctx, tr.ID, "user_a", revs[2].ID)
	require.NoError(t, err)
	parsed, err := document.Decode(got.Document)
	require.NoError(t, err)
	assert.Len(t, parsed.Persons, 7)
}

func TestSaveDocumentRejects(t *testing.T) {
	s := NewService(NewMemoryStore(), Options{RevisionKeep: 3, MaxDocumentBytes: 64})
	ctx := context.Background()
	tr, err := s.Create(ctx, "user_a", "Family")
	require.NoError(t, err)

	_, err = s.SaveDocument(ctx, tr.ID, "user_a", []byte(`{"persons": [`), "http")
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.True(t, document.IsMalformed(err))

	_, err = s.SaveDocument(ctx, tr.ID, "user_a", sampleDocument(t), "http")
	assert.ErrorIs(t, err, ErrDocumentTooLarge)

	revs, err := s.ListRevisions(ctx, tr.ID, "user_a")
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}

func TestRenameAndDelete(t *testing.T) {
	s := newTestService(t, 3)
	ctx := context.Background()
	tr, err := s.Create(ctx, "user_a", "Old")
	require.NoError(t, err)

	renamed, err := s.Rename(ctx, tr.ID, "user_a", "New")
	require.NoError(t, err)
	assert.Equal(t, "New", renamed.Name)

	require.NoError(t, s.Delete(ctx, tr.ID, "user_a"))
	_, err = s.Get(ctx, tr.ID, "user_a")
	assert.ErrorIs(t, err, ErrNotFound)
}
