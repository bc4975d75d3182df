package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/webkech/internal/dbx"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name   string
	get    string
	upsert string
	delete string
}

var (
	SQLite = Dialect{
		Name: "sqlite",
		get:  `SELECT value FROM kv WHERE key = ?`,
		upsert: `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		delete: `DELETE FROM kv WHERE key = ?`,
	}

	Postgres = Dialect{
		Name: "postgres",
		get:  `SELECT value FROM kv WHERE key = $1`,
		upsert: `
		INSERT INTO kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		delete: `DELETE FROM kv WHERE key = $1`,
	}
)

// SQLRepository stores keys in the `kv` table created by the migrations
// package.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ Repository = (*SQLRepository)(nil)

func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return NewSQLRepository(db, SQLite)
}

func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return NewSQLRepository(db, Postgres)
}

func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, r.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.set(ctx, r.db, key, value)
}

func (r *SQLRepository) set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	if _, err := db.ExecContext(ctx, r.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.delete, key); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) SetBatch(ctx context.Context, entries ...Entry) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, e := range entries {
			if err := r.set(ctx, tx, e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
