package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinfolk/kinfolk/internal/db"
)

// PGStore keeps trees in Postgres.
type PGStore struct {
	pool    *pgxpool.Pool
	queries *db.Queries
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, queries: db.New(pool)}
}

func (s *PGStore) inTx(ctx context.Context, fn func(q *db.Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PGStore) CreateTree(ctx context.Context, t Tree, initial Revision) (Tree, error) {
	var out Tree
	err := s.inTx(ctx, func(q *db.Queries) error {
		row, err := q.CreateTree(ctx, db.CreateTreeParams{ID: t.ID, OwnerID: t.OwnerID, Name: t.Name})
		if err != nil {
			return fmt.Errorf("create tree: %w", err)
		}
		if _, err := q.CreateRevision(ctx, revisionParams(initial)); err != nil {
			return fmt.Errorf("create initial revision: %w", err)
		}
		out = dbTreeToTree(row)
		return nil
	})
	return out, err
}

func (s *PGStore) GetTree(ctx context.Context, id string) (Tree, error) {
	row, err := s.queries.GetTree(ctx, id)
	if err != nil {
		return Tree{}, mapNoRows(err, "get tree")
	}
	return dbTreeToTree(row), nil
}

func (s *PGStore) ListTrees(ctx context.Context, ownerID string) ([]Tree, error) {
	rows, err := s.queries.ListTreesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	trees := make([]Tree, len(rows))
	for i, r := range rows {
		trees[i] = dbTreeToTree(r)
	}
	return trees, nil
}

func (s *PGStore) RenameTree(ctx context.Context, id, name string) error {
	n, err := s.queries.RenameTree(ctx, db.RenameTreeParams{ID: id, Name: name})
	if err != nil {
		return fmt.Errorf("rename tree: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteTree(ctx context.Context, id string) error {
	n, err := s.queries.DeleteTree(ctx, id)
	if err != nil {
		return fmt.Errorf("delete tree: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) AddRevision(ctx context.Context, rev Revision, keep int) (Revision, int, error) {
	var (
		out    Revision
		pruned int64
	)
	err := s.inTx(ctx, func(q *db.Queries) error {
		row, err := q.CreateRevision(ctx, revisionParams(rev))
		if err != nil {
			return fmt.Errorf("create revision: %w", err)
		}
		if err := q.TouchTree(ctx, rev.TreeID); err != nil {
			return fmt.Errorf("touch tree: %w", err)
		}
		pruned, err = q.PruneRevisions(ctx, db.PruneRevisionsParams{TreeID: rev.TreeID, Keep: int32(keep)})
		if err != nil {
			return fmt.Errorf("prune revisions: %w", err)
		}
		out = dbRevisionToRevision(row)
		return nil
	})
	return out, int(pruned), err
}

func (s *PGStore) LatestRevision(ctx context.Context, treeID string) (Revision, error) {
	row, err := s.queries.GetLatestRevision(ctx, treeID)
	if err != nil {
		return Revision{}, mapNoRows(err, "get latest revision")
	}
	return dbRevisionToRevision(row), nil
}

func (s *PGStore) GetRevision(ctx context.Context, treeID, revisionID string) (Revision, error) {
	row, err := s.queries.GetRevision(ctx, db.GetRevisionParams{TreeID: treeID, ID: revisionID})
	if err != nil {
		return Revision{}, mapNoRows(err, "get revision")
	}
	return dbRevisionToRevision(row), nil
}

func (s *PGStore) ListRevisions(ctx context.Context, treeID string) ([]Revision, error) {
	rows, err := s.queries.ListRevisions(ctx, treeID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	revs := make([]Revision, len(rows))
	for i, r := range rows {
		revs[i] = dbRevisionToRevision(r)
	}
	return revs, nil
}

func mapNoRows(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func revisionParams(r Revision) db.CreateRevisionParams {
	return db.CreateRevisionParams{
		ID:          r.ID,
		TreeID:      r.TreeID,
		Document:    r.Document,
		PersonCount: int32(r.PersonCount),
		SizeBytes:   int32(r.SizeBytes),
	}
}

func dbTreeToTree(t db.Tree) Tree {
	return Tree{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt.Time,
		UpdatedAt: t.UpdatedAt.Time,
	}
}

func dbRevisionToRevision(r db.Revision) Revision {
	return Revision{
		ID:          r.ID,
		TreeID:      r.TreeID,
		PersonCount: int(r.PersonCount),
		SizeBytes:   int(r.SizeBytes),
		CreatedAt:   r.CreatedAt.Time,
		Document:    r.Document,
	}
}
