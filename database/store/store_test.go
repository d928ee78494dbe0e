// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/versodb/verso/backend"
	"github.com/versodb/verso/backend/memory"
	"github.com/versodb/verso/common"
	"github.com/versodb/verso/database/archive"
	"github.com/versodb/verso/database/trie"
)

func TestStore_ValuesCanBeInsertedAndLookedUp(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{})
	require.NoError(err)

	_, found := Lookup[string](st, "key")
	require.False(found)

	revision, err := Insert(st, "key", "value")
	require.NoError(err)
	require.EqualValues(1, revision)

	guard, found := Lookup[string](st, "key")
	require.True(found)
	require.Equal("value", *guard.Value())
	require.EqualValues(1, guard.Revision())
}

func TestStore_LookupWithMismatchedTypeFails(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{})
	require.NoError(err)

	_, err = Insert(st, "key", 42)
	require.NoError(err)

	_, found := Lookup[string](st, "key")
	require.False(found)
}

func TestStore_DeleteErasesValues(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{})
	require.NoError(err)

	_, err = Insert(st, "key", "value")
	require.NoError(err)

	revision, removed, err := st.Delete("key")
	require.NoError(err)
	require.True(removed)
	require.EqualValues(2, revision)

	_, found := Lookup[string](st, "key")
	require.False(found)
}

func TestStore_DeletingAnAbsentKeyProducesNoRevision(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{})
	require.NoError(err)

	_, err = Insert(st, "key", "value")
	require.NoError(err)

	revision, removed, err := st.Delete("other")
	require.NoError(err)
	require.False(removed)
	require.EqualValues(1, revision)

	_, revision = st.Snapshot()
	require.EqualValues(1, revision)
}

func TestStore_GuardsKeepTheirVersionAlive(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{})
	require.NoError(err)

	_, err = Insert(st, "key", "old")
	require.NoError(err)

	guard, found := Lookup[string](st, "key")
	require.True(found)

	_, err = Insert(st, "key", "new")
	require.NoError(err)
	_, _, err = st.Delete("key")
	require.NoError(err)

	// The guard still reads from the version it was created on.
	require.Equal("old", *guard.Value())
	value, found := trie.Get[string](guard.Snapshot(), "key")
	require.True(found)
	require.Equal("old", *value)

	_, found = Lookup[string](st, "key")
	require.False(found)
}

func TestStore_SnapshotIsUnaffectedBySubsequentWrites(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{})
	require.NoError(err)

	_, err = Insert(st, "a", 1)
	require.NoError(err)

	version, revision := st.Snapshot()
	require.EqualValues(1, revision)

	_, err = Insert(st, "b", 2)
	require.NoError(err)

	_, found := trie.Get[int](version, "b")
	require.False(found)
}

func TestStore_ConfigWithBackendRequiresCodec(t *testing.T) {
	require := require.New(t)

	_, err := NewStore(Config{Backend: memory.NewDatabase()})
	require.ErrorIs(err, errNoCodec)
}

func TestStore_ContentIsRestoredFromBackend(t *testing.T) {
	require := require.New(t)

	db := memory.NewDatabase()
	st, err := NewStore(Config{Backend: db, Codec: common.StringCodec{}})
	require.NoError(err)

	for i := range 10 {
		_, err = Insert(st, fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i))
		require.NoError(err)
	}
	_, _, err = st.Delete("key-3")
	require.NoError(err)
	require.NoError(st.Close())

	// The in-memory database retains its content beyond Close.
	restored, err := NewStore(Config{Backend: db, Codec: common.StringCodec{}})
	require.NoError(err)
	defer restored.Close()

	for i := range 10 {
		guard, found := Lookup[string](restored, fmt.Sprintf("key-%d", i))
		if i == 3 {
			require.False(found)
			continue
		}
		require.True(found, "key-%d", i)
		require.Equal(fmt.Sprintf("value-%d", i), *guard.Value())
	}
}

func TestStore_RevisionNumberingResumesFromArchive(t *testing.T) {
	require := require.New(t)

	file := filepath.Join(t.TempDir(), "archive.db")

	arch, err := archive.Open(file)
	require.NoError(err)
	st, err := NewStore(Config{Archive: arch, Codec: common.StringCodec{}})
	require.NoError(err)

	_, err = Insert(st, "a", "1")
	require.NoError(err)
	revision, err := Insert(st, "b", "2")
	require.NoError(err)
	require.EqualValues(2, revision)
	require.NoError(st.Close())

	arch, err = archive.Open(file)
	require.NoError(err)
	st, err = NewStore(Config{Archive: arch, Codec: common.StringCodec{}})
	require.NoError(err)
	defer st.Close()

	revision, err = Insert(st, "c", "3")
	require.NoError(err)
	require.EqualValues(3, revision)
}

func TestStore_ArchiveRecordsHistoricValues(t *testing.T) {
	require := require.New(t)

	file := filepath.Join(t.TempDir(), "archive.db")
	arch, err := archive.Open(file)
	require.NoError(err)

	st, err := NewStore(Config{Archive: arch, Codec: common.StringCodec{}})
	require.NoError(err)

	_, err = Insert(st, "key", "one") // revision 1
	require.NoError(err)
	_, err = Insert(st, "key", "two") // revision 2
	require.NoError(err)
	_, _, err = st.Delete("key") // revision 3
	require.NoError(err)
	require.NoError(st.Flush())

	for _, c := range []struct {
		revision uint64
		want     string
		exists   bool
	}{
		{1, "one", true},
		{2, "two", true},
		{3, "", false},
	} {
		value, exists, err := arch.Get("key", c.revision)
		require.NoError(err)
		require.Equal(c.exists, exists, "revision %d", c.revision)
		if exists {
			require.Equal(c.want, string(value), "revision %d", c.revision)
		}
	}
	require.NoError(st.Close())
}

func TestStore_WritesReachTheBackend(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	db := backend.NewMockDatabase(ctrl)
	db.EXPECT().All(gomock.Any()).Return(nil)
	db.EXPECT().Put([]byte("key"), []byte("value")).Return(nil)
	db.EXPECT().Delete([]byte("key")).Return(nil)
	db.EXPECT().Close().Return(nil)

	st, err := NewStore(Config{Backend: db, Codec: common.StringCodec{}})
	require.NoError(err)

	_, err = Insert(st, "key", "value")
	require.NoError(err)
	_, _, err = st.Delete("key")
	require.NoError(err)
	require.NoError(st.Close())
}

func TestStore_BackendIssuesAreReportedOnFlush(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	issue := fmt.Errorf("disk on fire")
	db := backend.NewMockDatabase(ctrl)
	db.EXPECT().All(gomock.Any()).Return(nil)
	db.EXPECT().Put(gomock.Any(), gomock.Any()).Return(issue)
	db.EXPECT().Close().Return(nil)

	st, err := NewStore(Config{Backend: db, Codec: common.StringCodec{}})
	require.NoError(err)

	_, err = Insert(st, "key", "value")
	require.NoError(err)
	require.ErrorIs(st.Flush(), issue)
	require.NoError(st.Check(), "issues are consumed when collected")
	require.NoError(st.Close())
}

func TestStore_InsertFailsOnUnencodableValue(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{Backend: memory.NewDatabase(), Codec: common.StringCodec{}})
	require.NoError(err)
	defer st.Close()

	_, err = Insert(st, "key", 42)
	require.Error(err, "inserting an int through a string codec must fail")

	_, found := Lookup[int](st, "key")
	require.False(found, "a failed insert must not publish a new version")
}

func TestStore_DigestMatchesDirectComputation(t *testing.T) {
	require := require.New(t)

	for _, withWorker := range []bool{false, true} {
		config := Config{Codec: common.StringCodec{}}
		if withWorker {
			config.Backend = memory.NewDatabase()
		}
		st, err := NewStore(config)
		require.NoError(err)

		_, err = Insert(st, "cat", "1")
		require.NoError(err)
		_, err = Insert(st, "car", "2")
		require.NoError(err)

		version, _ := st.Snapshot()
		want, err := trie.Digest(version, common.StringCodec{})
		require.NoError(err)

		have, err := st.Digest().Await().Get()
		require.NoError(err)
		require.Equal(want, have)
		require.NoError(st.Close())
	}
}

func TestStore_DigestWithoutCodecFails(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{})
	require.NoError(err)

	_, err = st.Digest().Await().Get()
	require.ErrorIs(err, errNoCodec)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	require := require.New(t)

	st, err := NewStore(Config{Backend: memory.NewDatabase(), Codec: common.StringCodec{}})
	require.NoError(err)
	require.NoError(st.Close())
	require.NoError(st.Close())
}
