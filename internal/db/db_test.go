package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinfolk/kinfolk/internal/typeid"
)

// testPool connects to KINFOLK_TEST_DATABASE_URL and skips without it.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("KINFOLK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("KINFOLK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func TestRevisionLifecycle(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	q := New(pool)

	user, err := q.CreateUser(ctx, CreateUserParams{
		ID:          typeid.NewUserID(),
		Email:       typeid.New("mail") + "@example.com",
		Password:    "x",
		DisplayName: "Tester",
	})
	require.NoError(t, err)

	tree, err := q.CreateTree(ctx, CreateTreeParams{ID: typeid.NewTreeID(), OwnerID: user.ID, Name: "Horvat"})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = q.DeleteTree(context.Background(), tree.ID) })

	var last Revision
	for i := range 5 {
		last, err = q.CreateRevision(ctx, CreateRevisionParams{
			ID:          typeid.NewRevisionID(),
			TreeID:      tree.ID,
			Document:    []byte(`{"persons":[]}`),
			PersonCount: int32(i),
			SizeBytes:   14,
		})
		require.NoError(t, err)
	}

	pruned, err := q.PruneRevisions(ctx, PruneRevisionsParams{TreeID: tree.ID, Keep: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	revs, err := q.ListRevisions(ctx, tree.ID)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, last.ID, revs[0].ID)

	latest, err := q.GetLatestRevision(ctx, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest.ID)
	assert.JSONEq(t, `{"persons":[]}`, string(latest.Document))

	_, err = q.GetTree(ctx, "tree_missing")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}
