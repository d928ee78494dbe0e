// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package io provides export and import of trie versions as snapshot
// streams. A snapshot is an RLP-encoded list of key/value records in
// ascending key order, compressed with snappy and guarded by a Keccak-256
// checksum of the uncompressed payload.
package io

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"

	"github.com/versodb/verso/common"
	"github.com/versodb/verso/database/trie"
)

// snapshotMagic identifies the snapshot format.
const snapshotMagic uint32 = 0x7672E501

// record is one key/value pair of a snapshot, with the value rendered
// through the exporting codec.
type record struct {
	Key   []byte
	Value []byte
}

// Export writes a snapshot of the given trie version to out. Values are
// rendered through the given codec.
func Export(out io.Writer, t trie.Trie, codec common.ValueCodec) error {
	var records []record
	err := trie.Walk(t, func(key string, holder any) error {
		value, err := codec.Encode(holder)
		if err != nil {
			return fmt.Errorf("failed to encode value for key %q: %w", key, err)
		}
		records = append(records, record{Key: []byte(key), Value: value})
		return nil
	})
	if err != nil {
		return err
	}

	payload, err := rlp.EncodeToBytes(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot payload: %w", err)
	}
	compressed := snappy.Encode(nil, payload)
	checksum := common.Keccak256(payload)

	if err := binary.Write(out, binary.BigEndian, snapshotMagic); err != nil {
		return err
	}
	if err := binary.Write(out, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := out.Write(compressed); err != nil {
		return err
	}
	_, err = out.Write(checksum[:])
	return err
}

// Import reads a snapshot from in and reconstructs the trie version it
// describes, decoding values through the given codec. The snapshot's
// checksum is verified before any record is applied.
func Import(in io.Reader, codec common.ValueCodec) (trie.Trie, error) {
	var magic uint32
	if err := binary.Read(in, binary.BigEndian, &magic); err != nil {
		return trie.Trie{}, err
	}
	if magic != snapshotMagic {
		return trie.Trie{}, fmt.Errorf("invalid snapshot magic number: %x", magic)
	}

	var length uint32
	if err := binary.Read(in, binary.BigEndian, &length); err != nil {
		return trie.Trie{}, err
	}
	compressed := make([]byte, length)
	if _, err := io.ReadFull(in, compressed); err != nil {
		return trie.Trie{}, err
	}
	var checksum common.Hash
	if _, err := io.ReadFull(in, checksum[:]); err != nil {
		return trie.Trie{}, err
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return trie.Trie{}, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	if have := common.Keccak256(payload); !bytes.Equal(have[:], checksum[:]) {
		return trie.Trie{}, fmt.Errorf("snapshot checksum mismatch: have %s, want %s", have, checksum)
	}

	var records []record
	if err := rlp.DecodeBytes(payload, &records); err != nil {
		return trie.Trie{}, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}

	res := trie.Trie{}
	for _, r := range records {
		holder, err := codec.Decode(r.Value)
		if err != nil {
			return trie.Trie{}, fmt.Errorf("failed to decode value for key %q: %w", r.Key, err)
		}
		res = trie.PutRaw(res, string(r.Key), holder)
	}
	return res, nil
}
