package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx runs the same queries inside tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// --- users ---

const createUser = `INSERT INTO users (id, email, password, display_name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password, display_name, created_at`

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.ID, arg.Email, arg.Password, arg.DisplayName)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `SELECT id, email, password, display_name, created_at
FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

const getUserByID = `SELECT id, email, password, display_name, created_at
FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByID, id).
		Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

// --- trees ---

const createTree = `INSERT INTO trees (id, owner_id, name)
VALUES ($1, $2, $3)
RETURNING id, owner_id, name, created_at, updated_at`

type CreateTreeParams struct {
	ID      string
	OwnerID string
	Name    string
}

func (q *Queries) CreateTree(ctx context.Context, arg CreateTreeParams) (Tree, error) {
	var t Tree
	err := q.db.QueryRow(ctx, createTree, arg.ID, arg.OwnerID, arg.Name).
		Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const getTree = `SELECT id, owner_id, name, created_at, updated_at FROM trees WHERE id = $1`

func (q *Queries) GetTree(ctx context.Context, id string) (Tree, error) {
	var t Tree
	err := q.db.QueryRow(ctx, getTree, id).
		Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const listTreesByOwner = `SELECT id, owner_id, name, created_at, updated_at
FROM trees WHERE owner_id = $1
ORDER BY updated_at DESC, id`

func (q *Queries) ListTreesByOwner(ctx context.Context, ownerID string) ([]Tree, error) {
	rows, err := q.db.Query(ctx, listTreesByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Tree, error) {
		var t Tree
		err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
		return t, err
	})
}

const renameTree = `UPDATE trees SET name = $2, updated_at = now() WHERE id = $1`

type RenameTreeParams struct {
	ID   string
	Name string
}

func (q *Queries) RenameTree(ctx context.Context, arg RenameTreeParams) (int64, error) {
	tag, err := q.db.Exec(ctx, renameTree, arg.ID, arg.Name)
	return tag.RowsAffected(), err
}

const touchTree = `UPDATE trees SET updated_at = now() WHERE id = $1`

func (q *Queries) TouchTree(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, touchTree, id)
	return err
}

const deleteTree = `DELETE FROM trees WHERE id = $1`

func (q *Queries) DeleteTree(ctx context.Context, id string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteTree, id)
	return tag.RowsAffected(), err
}

// --- revisions ---

const createRevision = `INSERT INTO revisions (id, tree_id, document, person_count, size_bytes)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, tree_id, document, person_count, size_bytes, created_at`

type CreateRevisionParams struct {
	ID          string
	TreeID      string
	Document    []byte
	PersonCount int32
	SizeBytes   int32
}

func (q *Queries) CreateRevision(ctx context.Context, arg CreateRevisionParams) (Revision, error) {
	var r Revision
	err := q.db.QueryRow(ctx, createRevision, arg.ID, arg.TreeID, arg.Document, arg.PersonCount, arg.SizeBytes).
		Scan(&r.ID, &r.TreeID, &r.Document, &r.PersonCount, &r.SizeBytes, &r.CreatedAt)
	return r, err
}

const getLatestRevision = `SELECT id, tree_id, document, person_count, size_bytes, created_at
FROM revisions WHERE tree_id = $1
ORDER BY seq DESC LIMIT 1`

func (q *Queries) GetLatestRevision(ctx context.Context, treeID string) (Revision, error) {
	var r Revision
	err := q.db.QueryRow(ctx, getLatestRevision, treeID).
		Scan(&r.ID, &r.TreeID, &r.Document, &r.PersonCount, &r.SizeBytes, &r.CreatedAt)
	return r, err
}

const getRevision = `SELECT id, tree_id, document, person_count, size_bytes, created_at
FROM revisions WHERE tree_id = $1 AND id = $2`

type GetRevisionParams struct {
	TreeID string
	ID     string
}

func (q *Queries) GetRevision(ctx context.Context, arg GetRevisionParams) (Revision, error) {
	var r Revision
	err := q.db.QueryRow(ctx, getRevision, arg.TreeID, arg.ID).
		Scan(&r.ID, &r.TreeID, &r.Document, &r.PersonCount, &r.SizeBytes, &r.CreatedAt)
	return r, err
}

// The document body is left out of listings.
const listRevisions = `SELECT id, tree_id, person_count, size_bytes, created_at
FROM revisions WHERE tree_id = $1
ORDER BY seq DESC`

func (q *Queries) ListRevisions(ctx context.Context, treeID string) ([]Revision, error) {
	rows, err := q.db.Query(ctx, listRevisions, treeID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Revision, error) {
		var r Revision
		err := row.Scan(&r.ID, &r.TreeID, &r.PersonCount, &r.SizeBytes, &r.CreatedAt)
		return r, err
	})
}

const pruneRevisions = `DELETE FROM revisions
WHERE tree_id = $1 AND seq NOT IN (
    SELECT seq FROM revisions WHERE tree_id = $1 ORDER BY seq DESC LIMIT $2
)`

type PruneRevisionsParams struct {
	TreeID string
	Keep   int32
}

// PruneRevisions keeps the newest Keep revisions of a tree.
func (q *Queries) PruneRevisions(ctx context.Context, arg PruneRevisionsParams) (int64, error) {
	tag, err := q.db.Exec(ctx, pruneRevisions, arg.TreeID, arg.Keep)
	return tag.RowsAffected(), err
}
