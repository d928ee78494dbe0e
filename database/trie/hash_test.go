// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/versodb/verso/common"
)

func TestDigest_EmptyTrieHasZeroDigest(t *testing.T) {
	require := require.New(t)

	digest, err := Digest(Trie{}, common.StringCodec{})
	require.NoError(err)
	require.Equal(common.Hash{}, digest)
}

func TestDigest_IsIndependentOfConstructionOrder(t *testing.T) {
	require := require.New(t)

	keys := []string{"cat", "car", "cart", "dog", "", "a"}

	forward := Trie{}
	for _, key := range keys {
		forward = Put(forward, key, key+"!")
	}
	backward := Trie{}
	for i := len(keys) - 1; i >= 0; i-- {
		backward = Put(backward, keys[i], keys[i]+"!")
	}

	a, err := Digest(forward, common.StringCodec{})
	require.NoError(err)
	b, err := Digest(backward, common.StringCodec{})
	require.NoError(err)
	require.Equal(a, b)
}

func TestDigest_ReflectsContentChanges(t *testing.T) {
	require := require.New(t)

	codec := common.StringCodec{}

	v1 := Put(Trie{}, "key", "one")
	v2 := Put(v1, "key", "two")
	v3 := v2.Remove("key")
	v4 := Put(v3, "key", "one")
	v5 := Put(v4, "other", "x")

	d1, err := Digest(v1, codec)
	require.NoError(err)
	d2, err := Digest(v2, codec)
	require.NoError(err)
	d3, err := Digest(v3, codec)
	require.NoError(err)
	d4, err := Digest(v4, codec)
	require.NoError(err)
	d5, err := Digest(v5, codec)
	require.NoError(err)

	require.NotEqual(d1, d2)
	require.Equal(common.Hash{}, d3)
	require.Equal(d1, d4, "identical content must produce identical digests")
	require.NotEqual(d4, d5)
}

func TestDigest_ParallelAndSequentialComputationAgree(t *testing.T) {
	require := require.New(t)

	// Enough top-level branches to trigger the parallel code path.
	trie := Trie{}
	for i := range 64 {
		key := fmt.Sprintf("%c/key/%d", 'A'+i%52, i)
		trie = Put(trie, key, fmt.Sprintf("value-%d", i))
	}

	parallel, err := Digest(trie, common.StringCodec{})
	require.NoError(err)

	sequential, err := digest(trie.root, common.StringCodec{})
	require.NoError(err)
	require.Equal(sequential, parallel)
}

func TestDigest_EncodingErrorsArePropagated(t *testing.T) {
	require := require.New(t)

	trie := Put(Trie{}, "key", 42)
	_, err := Digest(trie, common.StringCodec{})
	require.Error(err, "digesting int values with a string codec must fail")
}

func TestDigest_EncodingErrorsArePropagatedFromParallelSubtrees(t *testing.T) {
	require := require.New(t)

	trie := Trie{}
	for i := range 32 {
		trie = Put(trie, fmt.Sprintf("%c", 'a'+i%26), i)
	}
	_, err := Digest(trie, common.StringCodec{})
	require.Error(err)
}
