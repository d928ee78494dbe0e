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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/versodb/verso/backend"
)

func TestDatabase_ImplementsBackendInterface(t *testing.T) {
	var _ backend.Database = &Database{}
}

func TestDatabase_ValuesCanBeStoredAndRetrieved(t *testing.T) {
	require := require.New(t)
	db := NewDatabase()

	_, found, err := db.Get([]byte("key"))
	require.NoError(err)
	require.False(found)

	require.NoError(db.Put([]byte("key"), []byte("value")))

	value, found, err := db.Get([]byte("key"))
	require.NoError(err)
	require.True(found)
	require.Equal([]byte("value"), value)
}

func TestDatabase_ValuesCanBeDeleted(t *testing.T) {
	require := require.New(t)
	db := NewDatabase()

	require.NoError(db.Put([]byte("key"), []byte("value")))
	require.NoError(db.Delete([]byte("key")))

	_, found, err := db.Get([]byte("key"))
	require.NoError(err)
	require.False(found)

	require.NoError(db.Delete([]byte("key")))
}

func TestDatabase_StoredValuesAreCopied(t *testing.T) {
	require := require.New(t)
	db := NewDatabase()

	value := []byte("value")
	require.NoError(db.Put([]byte("key"), value))
	value[0] = 'X'

	stored, found, err := db.Get([]byte("key"))
	require.NoError(err)
	require.True(found)
	require.Equal([]byte("value"), stored)

	stored[0] = 'Y'
	again, _, err := db.Get([]byte("key"))
	require.NoError(err)
	require.Equal([]byte("value"), again)
}

func TestDatabase_AllVisitsEveryEntry(t *testing.T) {
	require := require.New(t)
	db := NewDatabase()

	want := map[string]string{}
	for i := range 10 {
		key := fmt.Sprintf("key-%d", i)
		value := fmt.Sprintf("value-%d", i)
		want[key] = value
		require.NoError(db.Put([]byte(key), []byte(value)))
	}

	have := map[string]string{}
	err := db.All(func(key, value []byte) error {
		have[string(key)] = string(value)
		return nil
	})
	require.NoError(err)
	require.Equal(want, have)
}

func TestDatabase_ContentSurvivesClose(t *testing.T) {
	require := require.New(t)
	db := NewDatabase()

	require.NoError(db.Put([]byte("key"), []byte("value")))
	require.NoError(db.Close())

	value, found, err := db.Get([]byte("key"))
	require.NoError(err)
	require.True(found)
	require.Equal([]byte("value"), value)
}

func TestDatabase_IsSafeForConcurrentUse(t *testing.T) {
	require := require.New(t)
	db := NewDatabase()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := []byte(fmt.Sprintf("key-%d", i))
			for range 100 {
				_ = db.Put(key, []byte("value"))
				_, _, _ = db.Get(key)
				_ = db.Delete(key)
			}
		}()
	}
	wg.Wait()

	require.NoError(db.All(func(key, value []byte) error { return nil }))
}
