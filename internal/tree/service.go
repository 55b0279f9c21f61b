package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kinfolk/kinfolk/internal/document"
	"github.com/kinfolk/kinfolk/internal/geometry"
	"github.com/kinfolk/kinfolk/internal/metrics"
	"github.com/kinfolk/kinfolk/internal/render"
	"github.com/kinfolk/kinfolk/internal/typeid"
)

var (
	ErrNotFound         = errors.New("tree not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrDocumentTooLarge = errors.New("document too large")
)

type Options struct {
	// RevisionKeep is how many revisions are retained per tree.
	RevisionKeep     int
	MaxDocumentBytes int64
}

type Service struct {
	store Store
	opts  Options
}

func NewService(store Store, opts Options) *Service {
	if opts.RevisionKeep < 1 {
		opts.RevisionKeep = 3
	}
	return &Service{store: store, opts: opts}
}

// MaxDocumentBytes is the largest document SaveDocument accepts, 0 for no
// limit.
func (s *Service) MaxDocumentBytes() int64 {
	return s.opts.MaxDocumentBytes
}

// emptyDocument is the seed revision of a new tree.
func emptyDocument() ([]byte, error) {
	return document.Encode(document.Tree{
		Camera:   geometry.DefaultCamera(),
		Settings: render.DefaultSettings(),
		NextID:   1,
	})
}

func (s *Service) Create(ctx context.Context, ownerID, name string) (*Tree, error) {
	doc, err := emptyDocument()
	if err != nil {
		return nil, err
	}
	treeID := typeid.NewTreeID()
	t, err := s.store.CreateTree(ctx,
		Tree{ID: treeID, OwnerID: ownerID, Name: name},
		Revision{ID: typeid.NewRevisionID(), TreeID: treeID, Document: doc, SizeBytes: len(doc)},
	)
	if err != nil {
		return nil, err
	}
	slog.Info("tree created", "tree", t.ID, "owner", ownerID)
	return &t, nil
}

// Authorize checks that userID owns the tree.
func (s *Service) Authorize(ctx context.Context, treeID, userID string) (*Tree, error) {
	t, err := s.store.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != userID {
		return nil, ErrForbidden
	}
	return &t, nil
}

func (s *Service) Get(ctx context.Context, treeID, userID string) (*Tree, error) {
	return s.Authorize(ctx, treeID, userID)
}

func (s *Service) List(ctx context.Context, userID string) ([]Tree, error) {
	trees, err := s.store.ListTrees(ctx, userID)
	if err != nil {
		return nil, err
	}
	if trees == nil {
		trees = []Tree{}
	}
	return trees, nil
}

func (s *Service) Rename(ctx context.Context, treeID, userID, name string) (*Tree, error) {
	if _, err := s.Authorize(ctx, treeID, userID); err != nil {
		return nil, err
	}
	if err := s.store.RenameTree(ctx, treeID, name); err != nil {
		return nil, err
	}
	t, err := s.store.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) Delete(ctx context.Context, treeID, userID string) error {
	if _, err := s.Authorize(ctx, treeID, userID); err != nil {
		return err
	}
	return s.store.DeleteTree(ctx, treeID)
}

// SaveDocument stores data as the tree's newest revision. The document is
// decoded first and stored in its normalized encoding, so a malformed or
// oversized document never reaches the store.
func (s *Service) SaveDocument(ctx context.Context, treeID, userID string, data []byte, source string) (*Revision, error) {
	if _, err := s.Authorize(ctx, treeID, userID); err != nil {
		if errors.Is(err, ErrForbidden) {
			metrics.DocumentsRejected.WithLabelValues("forbidden").Inc()
		}
		return nil, err
	}
	if s.opts.MaxDocumentBytes > 0 && int64(len(data)) > s.opts.MaxDocumentBytes {
		metrics.DocumentsRejected.WithLabelValues("too_large").Inc()
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrDocumentTooLarge, len(data), s.opts.MaxDocumentBytes)
	}

	parsed, err := document.Decode(data)
	if err != nil {
		metrics.DocumentsRejected.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	normalized, err := document.Encode(parsed)
	if err != nil {
		return nil, err
	}

	rev, pruned, err := s.store.AddRevision(ctx, Revision{
		ID:          typeid.NewRevisionID(),
		TreeID:      treeID,
		PersonCount: len(parsed.Persons),
		SizeBytes:   len(normalized),
		Document:    normalized,
	}, s.opts.RevisionKeep)
	if err != nil {
		return nil, err
	}

	metrics.DocumentsSaved.WithLabelValues(source).Inc()
	metrics.DocumentBytes.Observe(float64(len(normalized)))
	metrics.RevisionsPruned.Add(float64(pruned))
	slog.Debug("document saved", "tree", treeID, "revision", rev.ID, "persons", rev.PersonCount, "pruned", pruned, "source", source)
	return &rev, nil
}

// LatestDocument returns the newest stored document of a tree.
func (s *Service) LatestDocument(ctx context.Context, treeID, userID string) (*Revision, error) {
	if _, err := s.Authorize(ctx, treeID, userID); err != nil {
		return nil, err
	}
	rev, err := s.store.LatestRevision(ctx, treeID)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (s *Service) ListRevisions(ctx context.Context, treeID, userID string) ([]Revision, error) {
	if _, err := s.Authorize(ctx, treeID, userID); err != nil {
		return nil, err
	}
	return s.store.ListRevisions(ctx, treeID)
}

func (s *Service) GetRevision(ctx context.Context, treeID, userID, revisionID string) (*Revision, error) {
	if _, err := s.Authorize(ctx, treeID, userID); err != nil {
		return nil, err
	}
	rev, err := s.store.GetRevision(ctx, treeID, revisionID)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
