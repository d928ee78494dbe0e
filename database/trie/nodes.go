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
)

// ---- Nodes ----

// node is the interface of trie nodes, which come in two variants: plain
// nodes carrying only outgoing edges, and value nodes carrying a stored value
// in addition to their edges.
//
// Nodes are immutable once reachable from a published Trie handle. The
// mutating accessors setChild and dropChild may only be called on nodes
// produced by clone or one of the constructors below, while those nodes are
// still private to a single Put or Remove operation. A single node may be
// referenced by any number of trie versions at the same time.
type node interface {
	// child returns the node reached over the edge labeled c, if present.
	child(c byte) (node, bool)

	// edges exposes the node's children mapping. The returned map must not
	// be modified by the caller.
	edges() map[byte]node

	// value returns the type-erased holder of the node's stored value. The
	// second return value is false for plain nodes.
	value() (any, bool)

	// clone produces a private copy of the node: the same variant, a fresh
	// edge map whose entries reference the same child nodes, and, for value
	// nodes, the same shared value holder.
	clone() node

	// setChild rewrites a single edge. Only valid on private nodes.
	setChild(c byte, n node)

	// dropChild erases a single edge. Only valid on private nodes.
	dropChild(c byte)
}

// ---- Plain nodes ----

// plainNode is a trie node with outgoing edges and no stored value. It exists
// only on paths leading to value nodes further down.
type plainNode struct {
	children map[byte]node
}

// newChainNode creates a plain node with a single outgoing edge. Chains of
// such nodes bridge the part of a newly inserted key that had no existing
// nodes to follow.
func newChainNode(c byte, next node) *plainNode {
	return &plainNode{children: map[byte]node{c: next}}
}

// newPlainNode creates a plain node holding a copy of the given edge map. It
// replaces a value node whose value has been removed but whose descendants
// must stay reachable.
func newPlainNode(children map[byte]node) *plainNode {
	return &plainNode{children: maps.Clone(children)}
}

func (n *plainNode) child(c byte) (node, bool) {
	next, ok := n.children[c]
	return next, ok
}

func (n *plainNode) edges() map[byte]node {
	return n.children
}

func (n *plainNode) value() (any, bool) {
	return nil, false
}

func (n *plainNode) clone() node {
	return &plainNode{children: maps.Clone(n.children)}
}

func (n *plainNode) setChild(c byte, next node) {
	if n.children == nil {
		n.children = map[byte]node{}
	}
	n.children[c] = next
}

func (n *plainNode) dropChild(c byte) {
	delete(n.children, c)
}

// ---- Value nodes ----

// valueNode is a trie node that, in addition to outgoing edges, stores one
// value behind a type-erased holder. The holder is always a non-nil *T
// pointing to the value moved in by a Put; it is shared, never copied, across
// all trie versions that contain this node.
type valueNode struct {
	plainNode
	holder any
}

// newValueNode creates the terminal node for an inserted value. If prev is
// the node previously located at the key, its children are carried over so
// that all descendants stay reachable; the previous value, if any, is
// replaced wholesale.
func newValueNode(prev node, holder any) *valueNode {
	n := &valueNode{holder: holder}
	if prev != nil {
		n.children = maps.Clone(prev.edges())
	}
	return n
}

func (n *valueNode) value() (any, bool) {
	return n.holder, true
}

func (n *valueNode) clone() node {
	return &valueNode{
		plainNode: plainNode{children: maps.Clone(n.children)},
		holder:    n.holder,
	}
}
