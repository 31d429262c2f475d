// Package store reads catalog and order data from SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xiumachile/billpro/internal/logger"
)

var ErrNotFound = errors.New("not found")

// inChunk bounds the IDs bound into a single IN (...) clause.
const inChunk = 500

type Store struct {
	db  *sqlx.DB
	log *logger.Logger
}

func New(db *sqlx.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log.WithComponent("store")}
}

// PasswordHash returns the stored hash for email, or ErrNotFound.
func (s *Store) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := s.db.GetContext(ctx, &hash, `SELECT password_hash FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query user credentials: %w", err)
	}
	return hash, nil
}

// EnsureUser inserts the user unless one with email exists. It reports
// whether a row was inserted.
func (s *Store) EnsureUser(ctx context.Context, email, hash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash) VALUES (?, ?)
		ON CONFLICT(email) DO NOTHING
	`, email, hash)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return n > 0, nil
}

// selectIn runs query once per chunk of ids, binding each chunk to the single
// IN (?) placeholder, and appends the rows to dest.
func selectIn[T any](ctx context.Context, db *sqlx.DB, dest *[]T, query string, ids []int64) error {
	for start := 0; start < len(ids); start += inChunk {
		end := min(start+inChunk, len(ids))
		q, args, err := sqlx.In(query, ids[start:end])
		if err != nil {
			return err
		}
		var rows []T
		if err := db.SelectContext(ctx, &rows, db.Rebind(q), args...); err != nil {
			return err
		}
		*dest = append(*dest, rows...)
	}
	return nil
}
