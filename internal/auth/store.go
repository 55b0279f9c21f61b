package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kinfolk/kinfolk/internal/db"
)

// UserRecord is a stored account including its password hash.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// UserStore persists accounts. CreateUser returns ErrEmailTaken for a
// duplicate email; lookups return ErrUserNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u UserRecord) (UserRecord, error)
	UserByEmail(ctx context.Context, email string) (UserRecord, error)
	UserByID(ctx context.Context, id string) (UserRecord, error)
}

// PGUsers stores accounts in Postgres.
type PGUsers struct {
	queries *db.Queries
}

func NewPGUsers(queries *db.Queries) *PGUsers {
	return &PGUsers{queries: queries}
}

func (s *PGUsers) CreateUser(ctx context.Context, u UserRecord) (UserRecord, error) {
	row, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		ID:          u.ID,
		Email:       u.Email,
		Password:    u.PasswordHash,
		DisplayName: u.DisplayName,
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return UserRecord{}, ErrEmailTaken
		}
		return UserRecord{}, fmt.Errorf("create user: %w", err)
	}
	return fromRow(row), nil
}

func (s *PGUsers) UserByEmail(ctx context.Context, email string) (UserRecord, error) {
	row, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return UserRecord{}, notFound(err)
	}
	return fromRow(row), nil
}

func (s *PGUsers) UserByID(ctx context.Context, id string) (UserRecord, error) {
	row, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return UserRecord{}, notFound(err)
	}
	return fromRow(row), nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return fmt.Errorf("get user: %w", err)
}

func fromRow(u db.User) UserRecord {
	return UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.Password,
		DisplayName:  u.DisplayName,
		CreatedAt:    u.CreatedAt.Time,
	}
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// MemoryUsers keeps accounts in memory, for tests and the database-less
// development mode.
type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]UserRecord
	byEmail map[string]string
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUsers) CreateUser(_ context.Context, u UserRecord) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.byEmail[key]; ok {
		return UserRecord{}, ErrEmailTaken
	}
	u.CreatedAt = time.Now()
	s.byID[u.ID] = u
	s.byEmail[key] = u.ID
	return u, nil
}

func (s *MemoryUsers) UserByEmail(_ context.Context, email string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryUsers) UserByID(_ context.Context, id string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}
