// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store provides the key-value store enclosing the persistent trie.
// It holds the current trie version, swaps it atomically on writes, and
// optionally mirrors every committed write into a durable backend and a
// revision archive through a background worker.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/versodb/verso/backend"
	"github.com/versodb/verso/common"
	"github.com/versodb/verso/common/future"
	"github.com/versodb/verso/common/result"
	"github.com/versodb/verso/database/archive"
	"github.com/versodb/verso/database/trie"
)

// Config describes the optional collaborators of a Store. The zero value is
// valid and yields a purely in-memory store.
type Config struct {
	// Backend is the durable storage mirroring the store's content. On
	// startup, the current trie is restored from it. May be nil.
	Backend backend.Database

	// Archive records every committed write under its revision. May be nil.
	Archive *archive.Archive

	// Codec translates stored values to and from bytes. Required whenever
	// Backend or Archive is set, or digests are requested.
	Codec common.ValueCodec
}

// Store holds the current version of a persistent trie and hands out
// immutable snapshots of it. Reads take a snapshot without blocking writers;
// writes produce a new version and publish it under a monotonically
// increasing revision number.
//
// When configured with a backend or an archive, writes are forwarded to a
// background worker and applied asynchronously, so that write latency is not
// bound to storage latency. Sync, Flush, and Close drain the worker; issues
// it encounters surface through Check and Close.
type Store struct {
	mu       sync.RWMutex
	current  trie.Trie
	revision uint64

	codec common.ValueCodec
	db    backend.Database
	arch  *archive.Archive

	// Controls for interacting with the background worker applying writes
	// to the backend and the archive.
	commands chan<- command  // < commands to background worker
	syncs    <-chan struct{} // < signalled when syncing with background worker
	done     <-chan struct{} // < closed when background work is done

	issues issueCollector // < issues identified by background worker
}

// command represents an operation to be performed by the background worker.
// There are three kinds: write commands mirror a committed write, digest
// commands request the digest of a captured version, and sync commands,
// represented by a command with both fields nil, signal the worker to flush
// all pending work and report issues.
type command struct {
	write  *write
	digest *digestRequest
}

// write mirrors one committed write for the backend and the archive.
type write struct {
	revision uint64
	key      string
	value    []byte // < encoded value, nil for deletions
	deleted  bool
}

// digestRequest asks the worker to digest a captured trie version.
type digestRequest struct {
	version trie.Trie
	promise future.Promise[result.Result[common.Hash]]
}

var errNoCodec = errors.New("store has no value codec configured")

// NewStore creates a store with the given configuration. If a backend is
// provided, the current trie version is restored from its content, and if an
// archive is provided, revision numbering continues from its last recorded
// revision.
func NewStore(config Config) (*Store, error) {
	if (config.Backend != nil || config.Archive != nil) && config.Codec == nil {
		return nil, errNoCodec
	}

	res := &Store{
		codec: config.Codec,
		db:    config.Backend,
		arch:  config.Archive,
	}

	if config.Backend != nil {
		current := trie.Trie{}
		err := config.Backend.All(func(key, value []byte) error {
			holder, err := config.Codec.Decode(value)
			if err != nil {
				return fmt.Errorf("failed to restore key %q: %w", key, err)
			}
			current = trie.PutRaw(current, string(key), holder)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to restore store from backend: %w", err)
		}
		res.current = current
	}

	if config.Archive != nil {
		revision, found, err := config.Archive.LastRevision()
		if err != nil {
			return nil, fmt.Errorf("failed to resume archive revision: %w", err)
		}
		if found {
			res.revision = revision
		}
	}

	if config.Backend == nil && config.Archive == nil {
		return res, nil
	}

	commands := make(chan command, 1024)
	syncs := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		processCommands(config.Backend, config.Archive, config.Codec, commands, syncs, &res.issues)
	}()
	res.commands = commands
	res.syncs = syncs
	res.done = done
	return res, nil
}

// Guard gives read access to a value looked up in the store. It retains the
// trie version owning the value, so the value stays valid for the guard's
// lifetime no matter how many writes follow the lookup.
type Guard[T any] struct {
	version  trie.Trie
	revision uint64
	value    *T
}

// Value returns the guarded value. It must be treated as read-only.
func (g Guard[T]) Value() *T {
	return g.value
}

// Revision returns the revision of the version the value was read from.
func (g Guard[T]) Revision() uint64 {
	return g.revision
}

// Snapshot returns the trie version the value was read from.
func (g Guard[T]) Snapshot() trie.Trie {
	return g.version
}

// Lookup retrieves the value stored for key as type T. The second return
// value is false if the key is absent or holds a value of a different type.
func Lookup[T any](s *Store, key string) (Guard[T], bool) {
	version, revision := s.Snapshot()
	value, found := trie.Get[T](version, key)
	if !found {
		return Guard[T]{}, false
	}
	return Guard[T]{version: version, revision: revision, value: value}, true
}

// Insert stores value under key and publishes the resulting trie version. It
// returns the revision assigned to the write.
func Insert[T any](s *Store, key string, value T) (uint64, error) {
	holder := &value

	var encoded []byte
	if s.commands != nil {
		var err error
		encoded, err = s.codec.Encode(holder)
		if err != nil {
			return 0, fmt.Errorf("failed to encode value for key %q: %w", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = trie.PutRaw(s.current, key, holder)
	s.revision++
	if s.commands != nil {
		s.commands <- command{write: &write{revision: s.revision, key: key, value: encoded}}
	}
	return s.revision, nil
}

// Delete erases the value stored under key and publishes the resulting trie
// version. Deleting an absent key is a no-op that produces no new revision;
// the second return value reports whether a value was removed.
func (s *Store) Delete(key string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.Remove(key)
	if next == s.current {
		return s.revision, false, nil
	}
	s.current = next
	s.revision++
	if s.commands != nil {
		s.commands <- command{write: &write{revision: s.revision, key: key, deleted: true}}
	}
	return s.revision, true, nil
}

// Snapshot returns the current trie version and its revision. The returned
// version is immutable and unaffected by subsequent writes.
func (s *Store) Snapshot() (trie.Trie, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.revision
}

// Digest returns the digest of the current trie version. With a background
// worker running, the computation happens asynchronously on the captured
// version; otherwise the result is computed immediately.
func (s *Store) Digest() future.Future[result.Result[common.Hash]] {
	if s.codec == nil {
		return future.Immediate(result.Err[common.Hash](errNoCodec))
	}
	version, _ := s.Snapshot()
	if s.commands == nil {
		return future.Immediate(result.Of(trie.Digest(version, s.codec)))
	}
	promise, res := future.Create[result.Result[common.Hash]]()
	s.commands <- command{digest: &digestRequest{version: version, promise: promise}}
	return res
}

func processCommands(
	db backend.Database,
	arch *archive.Archive,
	codec common.ValueCodec,
	commands <-chan command,
	syncs chan<- struct{},
	issues *issueCollector,
) {
	for command := range commands {
		switch {
		case command.write != nil:
			w := command.write
			if db != nil {
				if w.deleted {
					issues.HandleIssue(db.Delete([]byte(w.key)))
				} else {
					issues.HandleIssue(db.Put([]byte(w.key), w.value))
				}
			}
			if arch != nil {
				issues.HandleIssue(arch.Add(w.revision, w.key, w.value, w.deleted))
			}
		case command.digest != nil:
			command.digest.promise.Fulfill(result.Of(trie.Digest(command.digest.version, codec)))
		default: // sync command
			syncs <- struct{}{}
		}
	}
}

// sync blocks until the background worker has processed all pending commands
// and returns the issues collected so far.
func (s *Store) sync() error {
	if s.commands == nil {
		return nil
	}
	s.commands <- command{}
	<-s.syncs
	return s.issues.Collect()
}

// Check reports issues encountered by the background worker without waiting
// for pending work to complete.
func (s *Store) Check() error {
	return s.issues.Collect()
}

// Flush blocks until all committed writes have reached the backend and the
// archive.
func (s *Store) Flush() error {
	return s.sync()
}

// Close flushes pending writes, stops the background worker, and closes the
// backend and the archive.
func (s *Store) Close() error {
	if s.commands == nil {
		return nil
	}
	flushErr := s.sync()
	close(s.commands)
	<-s.done
	s.commands = nil

	var dbErr, archErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.arch != nil {
		archErr = s.arch.Close()
	}
	return errors.Join(flushErr, dbErr, archErr)
}

// issueCollector collects issues encountered during background processing.
// Only the first 10 issues are stored in detail; any additional ones are
// counted but not stored, to bound memory usage.
type issueCollector struct {
	issues      []error // < collected issues
	extraIssues int     // < count of additional issues beyond stored ones
	mutex       sync.Mutex
}

func (c *issueCollector) HandleIssue(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if len(c.issues) < 10 {
		c.issues = append(c.issues, err)
	} else {
		c.extraIssues++
	}
}

func (c *issueCollector) Collect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.extraIssues > 0 {
		c.issues = append(c.issues, fmt.Errorf("%d additional errors truncated", c.extraIssues))
	}
	res := errors.Join(c.issues...)
	c.issues = c.issues[:0]
	c.extraIssues = 0
	return res
}
