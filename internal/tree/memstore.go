package tree

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps trees in memory, for tests and the database-less
// development mode.
type MemoryStore struct {
	mu        sync.Mutex
	trees     map[string]Tree
	revisions map[string][]Revision // oldest first
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trees:     make(map[string]Tree),
		revisions: make(map[string][]Revision),
		now:       time.Now,
	}
}

func (s *MemoryStore) CreateTree(_ context.Context, t Tree, initial Revision) (Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	initial.CreatedAt = now
	s.trees[t.ID] = t
	s.revisions[t.ID] = []Revision{initial}
	return t, nil
}

func (s *MemoryStore) GetTree(_ context.Context, id string) (Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trees[id]
	if !ok {
		return Tree{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ListTrees(_ context.Context, ownerID string) ([]Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Tree
	for _, t := range s.trees {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b Tree) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) RenameTree(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trees[id]
	if !ok {
		return ErrNotFound
	}
	t.Name = name
	t.UpdatedAt = s.now()
	s.trees[id] = t
	return nil
}

func (s *MemoryStore) DeleteTree(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trees[id]; !ok {
		return ErrNotFound
	}
	delete(s.trees, id)
	delete(s.revisions, id)
	return nil
}

func (s *MemoryStore) AddRevision(_ context.Context, rev Revision, keep int) (Revision, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trees[rev.TreeID]
	if !ok {
		return Revision{}, 0, ErrNotFound
	}
	rev.CreatedAt = s.now()
	revs := append(s.revisions[rev.TreeID], rev)
	pruned := 0
	if keep > 0 && len(revs) > keep {
		pruned = len(revs) - keep
		revs = slices.Clone(revs[pruned:])
	}
	s.revisions[rev.TreeID] = revs
	t.UpdatedAt = rev.CreatedAt
	s.trees[rev.TreeID] = t
	return rev, pruned, nil
}

func (s *MemoryStore) LatestRevision(_ context.Context, treeID string) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revs := s.revisions[treeID]
	if len(revs) == 0 {
		return Revision{}, ErrNotFound
	}
	return revs[len(revs)-1], nil
}

func (s *MemoryStore) GetRevision(_ context.Context, treeID, revisionID string) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.revisions[treeID] {
		if r.ID == revisionID {
			return r, nil
		}
	}
	return Revision{}, ErrNotFound
}

func (s *MemoryStore) ListRevisions(_ context.Context, treeID string) ([]Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revs := s.revisions[treeID]
	out := make([]Revision, 0, len(revs))
	for i := len(revs) - 1; i >= 0; i-- {
		r := revs[i]
		r.Document = nil
		out = append(out, r)
	}
	return out, nil
}
