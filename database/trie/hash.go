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
	"errors"
	"maps"
	"slices"

	"github.com/versodb/verso/common"
)

// Digest computes a Keccak-256 digest of the given trie version. The digest
// covers the full node graph in a canonical form, with children visited in
// ascending edge order and values rendered through the given codec, so two
// versions holding the same key/value content produce the same digest
// regardless of the order in which they were built.
//
// The subtrees below the root are digested in parallel when there are enough
// of them to pay for the coordination overhead.
func Digest(t Trie, codec common.ValueCodec) (common.Hash, error) {
	if t.root == nil {
		return common.Hash{}, nil
	}

	edges := slices.Sorted(maps.Keys(t.root.edges()))

	// One task per direct child of the root, plus an aggregation task that
	// combines the subtree digests with the root's own value.
	childDigests := make([]common.Hash, len(edges))
	childErrors := make([]error, len(edges))
	tasks := make([]*task, 0, len(edges)+1)
	for i, c := range edges {
		child, _ := t.root.child(c)
		tasks = append(tasks, newTask(func() {
			childDigests[i], childErrors[i] = digest(child, codec)
		}, 0))
	}

	var res common.Hash
	var resErr error
	aggTask := newTask(func() {
		if err := errors.Join(childErrors...); err != nil {
			resErr = err
			return
		}
		payload, err := nodePayload(t.root, codec)
		if err != nil {
			resErr = err
			return
		}
		for i, c := range edges {
			payload = append(payload, c)
			payload = append(payload, childDigests[i][:]...)
		}
		res = common.Keccak256(payload)
	}, len(tasks))
	for _, childTask := range tasks {
		childTask.parentTask = aggTask
	}
	tasks = append(tasks, aggTask)

	runTasks(tasks)
	return res, resErr
}

// digest computes the canonical digest of a subtree sequentially.
func digest(n node, codec common.ValueCodec) (common.Hash, error) {
	payload, err := nodePayload(n, codec)
	if err != nil {
		return common.Hash{}, err
	}
	for _, c := range slices.Sorted(maps.Keys(n.edges())) {
		child, _ := n.child(c)
		h, err := digest(child, codec)
		if err != nil {
			return common.Hash{}, err
		}
		payload = append(payload, c)
		payload = append(payload, h[:]...)
	}
	return common.Keccak256(payload), nil
}

// nodePayload renders the node's own contribution to its digest: a variant
// tag and, for value nodes, the length-prefixed value encoding.
func nodePayload(n node, codec common.ValueCodec) ([]byte, error) {
	holder, ok := n.value()
	if !ok {
		return []byte{0}, nil
	}
	data, err := codec.Encode(holder)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, 5+len(data))
	payload = append(payload, 1)
	payload = append(payload,
		byte(len(data)>>24), byte(len(data)>>16), byte(len(data)>>8), byte(len(data)))
	return append(payload, data...), nil
}
