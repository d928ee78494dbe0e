// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"sync"
)

// Database is an in-memory backend.Database implementation. It retains its
// content for the lifetime of the object, surviving Close, which makes it
// useful for tests and tooling exercising the store's restore path without
// touching the disk.
type Database struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewDatabase creates an empty in-memory database.
func NewDatabase() *Database {
	return &Database{data: map[string][]byte{}}
}

func (d *Database) Put(key, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	d.data[string(key)] = stored
	return nil
}

func (d *Database) Delete(key []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, string(key))
	return nil
}

func (d *Database) Get(key []byte) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	value, found := d.data[string(key)]
	if !found {
		return nil, false, nil
	}
	res := make([]byte, len(value))
	copy(res, value)
	return res, true, nil
}

func (d *Database) All(visit func(key, value []byte) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, value := range d.data {
		if err := visit([]byte(key), value); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) Close() error {
	return nil
}
