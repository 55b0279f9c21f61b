package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   pgtype.Timestamptz
}

type Tree struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Revision struct {
	ID          string
	TreeID      string
	Document    []byte
	PersonCount int32
	SizeBytes   int32
	CreatedAt   pgtype.Timestamptz
}
