// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local conversation persistence for relaychat.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/relaychat/internal/model"
)

// MemoryPath opens a private in-memory database. Used by tests and --db=:memory:.
const MemoryPath = ":memory:"

// =============================================================================
// STORE
// =============================================================================

// Store is an open conversation database.
// Lifecycle: Open, use, Close. Safe for use from multiple goroutines; the
// single connection serializes transactions.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database at path and initializes the
// schema. Opening an already initialized database is a no-op.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, &StoreError{Kind: KindOpen, Op: "open", Err: errors.New("empty database path")}
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, &StoreError{Kind: KindOpen, Op: "open", Err: fmt.Errorf("failed to create database directory: %w", err)}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Kind: KindOpen, Op: "open", Err: err}
	}

	// SQLite only supports one writer at a time; one connection also keeps
	// an in-memory database alive for the life of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, &StoreError{Kind: KindOpen, Op: "open", Err: err}
	}
	return s, nil
}

// init applies pragmas and creates the tables if absent.
func (s *Store) init(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside one transaction. Any failure rolls everything back
// and is reported as KindTxAborted.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return aborted(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		var se *StoreError
		if errors.As(err, &se) {
			return err
		}
		return aborted(op, err)
	}
	if err := tx.Commit(); err != nil {
		return aborted(op, err)
	}
	return nil
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AppendMessage stores a message and returns it with its assigned id.
func (s *Store) AppendMessage(ctx context.Context, role model.Role, content string) (model.Message, error) {
	if !role.Storable() {
		return model.Message{}, &StoreError{Kind: KindInvalid, Op: "append", Err: fmt.Errorf("role %q cannot be stored", role)}
	}

	msg := model.Message{Role: role, Content: content, CreatedAt: s.now()}
	err := s.withTx(ctx, "append", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			`INSERT INTO chats (role, content, created_at) VALUES (?, ?, ?) RETURNING id`,
			string(role), content, msg.CreatedAt.UnixNano(),
		).Scan(&msg.ID)
	})
	if err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// ListMessages returns every stored message in insertion order.
func (s *Store) ListMessages(ctx context.Context) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := s.withTx(ctx, "list", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, role, content, created_at FROM chats ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				msg     model.Message
				role    string
				created int64
			)
			if err := rows.Scan(&msg.ID, &role, &msg.Content, &created); err != nil {
				return err
			}
			msg.Role = model.Role(role)
			msg.CreatedAt = time.Unix(0, created)
			messages = append(messages, msg)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Count returns the number of stored messages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.withTx(ctx, "count", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&n)
	})
	return n, err
}

// =============================================================================
// METADATA OPERATIONS
// =============================================================================

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	if key == "" {
		return &StoreError{Kind: KindInvalid, Op: "set metadata", Err: errors.New("empty key")}
	}
	return s.withTx(ctx, "set metadata", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO metadata (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value)
		return err
	})
}

// GetMetadata returns the value stored under key, or ErrNotFound.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.withTx(ctx, "get metadata", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return &StoreError{Kind: KindNotFound, Op: "get metadata", Err: fmt.Errorf("key %q", key)}
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadataIfAbsent stores value under key only when the key is unset.
// It returns the value held after the call and whether this call wrote it.
// Empty values are never stored.
func (s *Store) SetMetadataIfAbsent(ctx context.Context, key, value string) (string, bool, error) {
	if key == "" {
		return "", false, &StoreError{Kind: KindInvalid, Op: "set metadata", Err: errors.New("empty key")}
	}
	if value == "" {
		return "", false, &StoreError{Kind: KindInvalid, Op: "set metadata", Err: errors.New("empty value")}
	}

	var (
		stored string
		set    bool
	)
	err := s.withTx(ctx, "set metadata", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
			key, value)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		set = affected == 1
		return tx.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&stored)
	})
	if err != nil {
		return "", false, err
	}
	return stored, set, nil
}

// =============================================================================
// CLEAR
// =============================================================================

// Clear removes all messages and all metadata in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	return s.withTx(ctx, "clear", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chats`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM metadata`)
		return err
	})
}
