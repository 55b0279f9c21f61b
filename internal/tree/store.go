package tree

import (
	"context"
	"time"
)

// Tree is a saved family tree owned by one user.
type Tree struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Revision is one stored version of a tree's document.
type Revision struct {
	ID          string    `json:"id"`
	TreeID      string    `json:"treeId"`
	PersonCount int       `json:"personCount"`
	SizeBytes   int       `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
	Document    []byte    `json:"-"`
}

// Store persists trees and their revisions. Missing records are reported as
// ErrNotFound.
type Store interface {
	CreateTree(ctx context.Context, t Tree, initial Revision) (Tree, error)
	GetTree(ctx context.Context, id string) (Tree, error)
	ListTrees(ctx context.Context, ownerID string) ([]Tree, error)
	RenameTree(ctx context.Context, id, name string) error
	DeleteTree(ctx context.Context, id string) error

	// AddRevision stores rev as the newest revision and keeps only the keep
	// newest ones. It returns how many were pruned.
	AddRevision(ctx context.Context, rev Revision, keep int) (Revision, int, error)
	LatestRevision(ctx context.Context, treeID string) (Revision, error)
	GetRevision(ctx context.Context, treeID, revisionID string) (Revision, error)
	// ListRevisions returns revisions newest first without their documents.
	ListRevisions(ctx context.Context, treeID string) ([]Revision, error)
}
