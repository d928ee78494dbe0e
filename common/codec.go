// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// ValueCodec translates the type-erased value holders stored in a trie to
// and from a byte representation. Holders are pointers to the stored value,
// exactly as created by an insert; Decode must return a holder of the same
// pointer type that Encode accepts.
//
// A codec is required wherever values cross a process boundary: durable
// backends, archives, and snapshot export/import.
type ValueCodec interface {
	// Encode renders the given holder. It fails if the holder is not of the
	// pointer type handled by this codec.
	Encode(holder any) ([]byte, error)

	// Decode reconstructs a holder from its byte representation.
	Decode(data []byte) (any, error)
}

// StringCodec handles *string holders.
type StringCodec struct{}

func (StringCodec) Encode(holder any) ([]byte, error) {
	s, ok := holder.(*string)
	if !ok {
		return nil, fmt.Errorf("string codec cannot encode holder of type %T", holder)
	}
	return []byte(*s), nil
}

func (StringCodec) Decode(data []byte) (any, error) {
	s := string(data)
	return &s, nil
}

// BytesCodec handles *[]byte holders.
type BytesCodec struct{}

func (BytesCodec) Encode(holder any) ([]byte, error) {
	b, ok := holder.(*[]byte)
	if !ok {
		return nil, fmt.Errorf("bytes codec cannot encode holder of type %T", holder)
	}
	return *b, nil
}

func (BytesCodec) Decode(data []byte) (any, error) {
	b := make([]byte, len(data))
	copy(b, data)
	return &b, nil
}

// Uint64Codec handles *uint64 holders using a fixed 8-byte big-endian
// representation.
type Uint64Codec struct{}

func (Uint64Codec) Encode(holder any) ([]byte, error) {
	v, ok := holder.(*uint64)
	if !ok {
		return nil, fmt.Errorf("uint64 codec cannot encode holder of type %T", holder)
	}
	return binary.BigEndian.AppendUint64(nil, *v), nil
}

func (Uint64Codec) Decode(data []byte) (any, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("invalid uint64 encoding of %d bytes", len(data))
	}
	v := binary.BigEndian.Uint64(data)
	return &v, nil
}

// Uint256Codec handles *uint256.Int holders using the canonical 32-byte
// big-endian representation.
type Uint256Codec struct{}

func (Uint256Codec) Encode(holder any) ([]byte, error) {
	v, ok := holder.(*uint256.Int)
	if !ok {
		return nil, fmt.Errorf("uint256 codec cannot encode holder of type %T", holder)
	}
	b := v.Bytes32()
	return b[:], nil
}

func (Uint256Codec) Decode(data []byte) (any, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("invalid uint256 encoding of %d bytes", len(data))
	}
	return new(uint256.Int).SetBytes(data), nil
}
