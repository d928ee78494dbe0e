// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package archive provides an append-only history of the store's writes,
// kept in an SQLite database. Each committed write is recorded under its
// revision number, allowing the value of any key to be queried as of any
// past revision.
package archive

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createSchema = `
CREATE TABLE IF NOT EXISTS writes (
	revision INTEGER NOT NULL,
	key      BLOB    NOT NULL,
	value    BLOB,
	deleted  INTEGER NOT NULL,
	PRIMARY KEY (revision, key)
);
CREATE INDEX IF NOT EXISTS writes_by_key ON writes (key, revision);
`

// Archive is an SQLite-backed revision history. It is safe for concurrent
// use by multiple goroutines.
type Archive struct {
	db *sql.DB

	add     *sql.Stmt
	get     *sql.Stmt
	lastRev *sql.Stmt
}

// Open opens (or creates) an archive stored in the given file.
func Open(file string) (*Archive, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive at %s: %w", file, err)
	}
	if _, err := db.Exec(createSchema); err != nil {
		return nil, errors.Join(
			fmt.Errorf("failed to initialize archive schema: %w", err),
			db.Close(),
		)
	}

	add, err := db.Prepare("INSERT INTO writes (revision, key, value, deleted) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	get, err := db.Prepare("SELECT value, deleted FROM writes WHERE key = ? AND revision <= ? ORDER BY revision DESC LIMIT 1")
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	lastRev, err := db.Prepare("SELECT MAX(revision) FROM writes")
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return &Archive{db: db, add: add, get: get, lastRev: lastRev}, nil
}

// Add records one committed write. For deletions, value must be nil and
// deleted true.
func (a *Archive) Add(revision uint64, key string, value []byte, deleted bool) error {
	_, err := a.add.Exec(int64(revision), []byte(key), value, deleted)
	if err != nil {
		return fmt.Errorf("failed to record revision %d: %w", revision, err)
	}
	return nil
}

// Get returns the value the given key held as of the given revision. The
// second return value is false if the key had no value at that revision.
func (a *Archive) Get(key string, revision uint64) ([]byte, bool, error) {
	var value []byte
	var deleted bool
	err := a.get.QueryRow([]byte(key), int64(revision)).Scan(&value, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if deleted {
		return nil, false, nil
	}
	return value, true, nil
}

// LastRevision returns the highest recorded revision. The second return
// value is false if the archive is empty.
func (a *Archive) LastRevision() (uint64, bool, error) {
	var revision sql.NullInt64
	if err := a.lastRev.QueryRow().Scan(&revision); err != nil {
		return 0, false, err
	}
	if !revision.Valid {
		return 0, false, nil
	}
	return uint64(revision.Int64), true, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return errors.Join(
		a.add.Close(),
		a.get.Close(),
		a.lastRev.Close(),
		a.db.Close(),
	)
}
