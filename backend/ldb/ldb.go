// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// Database is a LevelDB-backed backend.Database implementation providing
// durable storage for the store's committed writes.
type Database struct {
	db *leveldb.DB
}

// Open opens (or creates) a LevelDB database in the given directory.
func Open(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &Database{db: db}, nil
}

func (d *Database) Put(key, value []byte) error {
	return d.db.Put(key, value, nil)
}

func (d *Database) Delete(key []byte) error {
	return d.db.Delete(key, nil)
}

func (d *Database) Get(key []byte) ([]byte, bool, error) {
	value, err := d.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (d *Database) All(visit func(key, value []byte) error) error {
	it := d.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		if err := visit(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (d *Database) Close() error {
	return d.db.Close()
}
