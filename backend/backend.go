// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package backend defines the byte-oriented durable storage interface the
// store writes through, together with its implementations.
package backend

//go:generate mockgen -source backend.go -destination backend_mocks.go -package backend

// Database is a flat key/value storage receiving the store's committed
// writes. Implementations must tolerate deletes of absent keys.
type Database interface {
	// Put stores the given value under the given key, replacing any previous
	// value.
	Put(key, value []byte) error

	// Delete removes the value stored under the given key, if any.
	Delete(key []byte) error

	// Get retrieves the value stored under the given key. The second return
	// value is false if the key is not present.
	Get(key []byte) ([]byte, bool, error)

	// All calls visit for every key/value pair in the database, in no
	// particular order. It is used to restore an in-memory trie on startup.
	All(visit func(key, value []byte) error) error

	// Close flushes and releases the underlying resources. The database must
	// not be used afterwards.
	Close() error
}
