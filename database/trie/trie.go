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
	"maps"
	"slices"
)

// Trie is an immutable handle on one version of a persistent trie keyed by
// byte strings. The zero value is an empty trie.
//
// Every mutation produces a new handle; all previously obtained handles
// remain valid and observably unchanged. Versions share, by reference, every
// subtree a mutation did not touch, so producing a new version costs at most
// one new node per key character plus one per ancestor on the key's path.
//
// Handles are safe for concurrent use: operations never modify nodes
// reachable from a published handle, so any number of goroutines may read
// from or derive new versions of the same handle without synchronization.
// Node lifetime is managed by the garbage collector; a node is released once
// no live handle reaches it anymore.
type Trie struct {
	root node
}

// Get looks up the value stored at key and returns a pointer to it. The
// second return value is false if the key is absent, the node at the key
// carries no value, or the stored value is not of type T; the three cases
// are indistinguishable to the caller. The returned pointer stays valid for
// as long as any trie version sharing the value's node is alive, and must be
// treated as read-only.
func Get[T any](t Trie, key string) (*T, bool) {
	cur := t.root
	for i := 0; i < len(key); i++ {
		if cur == nil {
			return nil, false
		}
		next, ok := cur.child(key[i])
		if !ok {
			return nil, false
		}
		cur = next
	}
	if cur == nil {
		return nil, false
	}
	holder, ok := cur.value()
	if !ok {
		return nil, false
	}
	v, ok := holder.(*T)
	if !ok {
		return nil, false
	}
	return v, true
}

// Put returns a new trie version in which key maps to value. The value is
// moved into a freshly allocated shared holder; a previously stored value at
// the key is replaced wholesale, while children of the replaced node are
// preserved. The receiver version is left unchanged.
func Put[T any](t Trie, key string, value T) Trie {
	return PutRaw(t, key, &value)
}

// PutRaw inserts a previously created value holder at key. Holders are
// pointers to the stored value, exactly as produced by Put; this entry point
// exists for restore paths that reconstruct holders through a ValueCodec.
// Regular callers should use Put.
func PutRaw(t Trie, key string, holder any) Trie {
	// Record the existing nodes along the key's path. The walk stops early
	// when an edge is missing.
	stack := make([]node, 0, len(key))
	cur := t.root
	idx := 0
	for idx < len(key) && cur != nil {
		c := key[idx]
		idx++
		stack = append(stack, cur)
		next, ok := cur.child(c)
		if !ok {
			cur = nil
		} else {
			cur = next
		}
	}

	// The new terminal node keeps the children of the node it replaces, if
	// the full key was matched by existing nodes.
	child := node(newValueNode(cur, holder))

	// Fresh single-edge nodes bridge the unmatched tail of the key, built
	// from the last character back toward the point where the walk broke off.
	for end := len(key); idx < end; {
		end--
		child = newChainNode(key[end], child)
	}

	// Clone the recorded ancestors from the deepest up to the root, rewriting
	// exactly one edge in each clone. All other edges of the clones, and
	// everything below them, stay shared with the input version.
	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i].clone()
		n.setChild(key[i], child)
		child = n
	}
	return Trie{root: child}
}

// Remove returns a trie version with the value at key erased. Removing a key
// that holds no value is not an error; the input version is returned as is.
func (t Trie) Remove(key string) Trie {
	stack := make([]node, 0, len(key))
	cur := t.root
	idx := 0
	for idx < len(key) && cur != nil {
		c := key[idx]
		idx++
		stack = append(stack, cur)
		next, ok := cur.child(c)
		if !ok {
			cur = nil
		} else {
			cur = next
		}
	}
	if idx != len(key) || cur == nil {
		return t
	}
	if _, ok := cur.value(); !ok {
		return t
	}

	// Strip the value: the node turns into a plain node when the key has
	// descendants, and disappears entirely when it does not.
	var child node
	if len(cur.edges()) > 0 {
		child = newPlainNode(cur.edges())
	}

	// Rebuild ancestors from the deepest up. An absent child erases the
	// corresponding edge in the clone, and a clone left without edges and
	// without a value becomes absent itself, so that emptiness propagates
	// toward the root. The root may end up absent, leaving an empty trie.
	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i].clone()
		if child == nil {
			n.dropChild(key[i])
		} else {
			n.setChild(key[i], child)
		}
		child = n
		if _, hasValue := n.value(); !hasValue && len(n.edges()) == 0 {
			child = nil
		}
	}
	return Trie{root: child}
}

// Walk invokes visit for every key holding a value, in ascending key order,
// passing the key and the type-erased value holder. It is the hook for
// serialization layers that persist a trie version; it is not a range query
// interface. Walking aborts on the first error, which is returned.
func Walk(t Trie, visit func(key string, holder any) error) error {
	if t.root == nil {
		return nil
	}
	return walk(t.root, nil, visit)
}

func walk(n node, prefix []byte, visit func(key string, holder any) error) error {
	if holder, ok := n.value(); ok {
		if err := visit(string(prefix), holder); err != nil {
			return err
		}
	}
	for _, c := range slices.Sorted(maps.Keys(n.edges())) {
		next, _ := n.child(c)
		if err := walk(next, append(prefix, c), visit); err != nil {
			return err
		}
	}
	return nil
}
