// Package viewdb persists the rendered request list in SQLite so that a
// restarted client resumes synchronization from the last scanned block.
package viewdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	_ "modernc.org/sqlite"
)

const (
	cursorKey = "cursor"
	scopeKey  = "scope"
)

// Scope identifies the contract whose requests are stored. Rows of one scope
// are never served to another.
type Scope struct {
	Network  netmode.Magic
	Contract util.Uint160
}

func (s Scope) String() string {
	return strconv.FormatUint(uint64(s.Network), 10) + ":" + s.Contract.StringLE()
}

// Store is an eventsync.Store backed by SQLite database.
type Store struct {
	db    *sql.DB
	reset bool
}

// Open opens (creating if needed) the database at path. Data saved for a
// different scope is dropped, so Load reports nothing until the first Save.
func Open(path string, scope Scope) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	reset, err := bindScope(db, scope)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bind scope %s: %w", scope, err)
	}

	return &Store{db: db, reset: reset}, nil
}

// bindScope clears the database if it was written for another scope and
// records the current one. It reports whether anything was dropped.
func bindScope(db *sql.DB, scope Scope) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var stored string
	err = tx.QueryRow(`SELECT value FROM meta WHERE key = ?`, scopeKey).Scan(&stored)
	switch {
	case err == nil && stored == scope.String():
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, err
	}

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM meta WHERE key = ?`, cursorKey).Scan(&n); err != nil {
		return false, err
	}

	for _, q := range []string{`DELETE FROM requests`, `DELETE FROM meta`} {
		if _, err := tx.Exec(q); err != nil {
			return false, err
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, scopeKey, scope.String()); err != nil {
		return false, err
	}

	return n > 0, tx.Commit()
}

// Reset reports whether Open dropped rows saved for another scope.
func (s *Store) Reset() bool {
	return s.reset
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS requests (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			key BLOB NOT NULL UNIQUE,
			investor BLOB NOT NULL,
			reward TEXT NOT NULL,
			deadline INTEGER NOT NULL,
			max_auditors INTEGER NOT NULL,
			block INTEGER NOT NULL,
			tx BLOB NOT NULL,
			idx INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load implements eventsync.Store.
func (s *Store) Load(ctx context.Context) ([]eventsync.Row, uint32, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, cursorKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("read cursor: %w", err)
	}

	cursor, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, 0, false, fmt.Errorf("invalid cursor %q: %w", raw, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, investor, reward, deadline, max_auditors, block, tx, idx
		FROM requests ORDER BY seq`)
	if err != nil {
		return nil, 0, false, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var res []eventsync.Row
	for rows.Next() {
		var (
			r                 eventsync.Row
			key, investor, tx []byte
			reward            string
		)
		if err := rows.Scan(&key, &investor, &reward, &r.Deadline, &r.MaxAuditors, &r.Block, &tx, &r.Index); err != nil {
			return nil, 0, false, fmt.Errorf("scan request: %w", err)
		}

		if r.Key, err = util.Uint256DecodeBytesBE(key); err != nil {
			return nil, 0, false, fmt.Errorf("decode key: %w", err)
		}
		if r.Investor, err = util.Uint160DecodeBytesBE(investor); err != nil {
			return nil, 0, false, fmt.Errorf("decode investor: %w", err)
		}
		if r.Tx, err = util.Uint256DecodeBytesBE(tx); err != nil {
			return nil, 0, false, fmt.Errorf("decode tx: %w", err)
		}

		var ok bool
		if r.Reward, ok = new(big.Int).SetString(reward, 10); !ok {
			return nil, 0, false, fmt.Errorf("invalid reward %q", reward)
		}

		res = append(res, r)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, false, fmt.Errorf("iterate requests: %w", err)
	}

	return res, uint32(cursor), true, nil
}

// Save implements eventsync.Store.
func (s *Store) Save(ctx context.Context, rows []eventsync.Row, rewards []eventsync.RewardUpdate, cursor uint32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		reward := "0"
		if r.Reward != nil {
			reward = r.Reward.String()
		}

		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO requests
			(key, investor, reward, deadline, max_auditors, block, tx, idx)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Key.BytesBE(), r.Investor.BytesBE(), reward, r.Deadline, r.MaxAuditors, r.Block, r.Tx.BytesBE(), r.Index)
		if err != nil {
			return fmt.Errorf("insert request %s: %w", r.Key.StringLE(), err)
		}
	}

	for _, u := range rewards {
		_, err = tx.ExecContext(ctx, `UPDATE requests SET reward = ? WHERE key = ?`, u.Reward.String(), u.Key.BytesBE())
		if err != nil {
			return fmt.Errorf("update reward of %s: %w", u.Key.StringLE(), err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		cursorKey, strconv.FormatUint(uint64(cursor), 10))
	if err != nil {
		return fmt.Errorf("update cursor: %w", err)
	}

	return tx.Commit()
}
