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
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Hash is a 32-byte cryptographic digest.
type Hash [32]byte

// Keccak256 computes the Keccak-256 digest of the given data.
func Keccak256(data []byte) Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var res Hash
	h.Sum(res[0:0])
	return res
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}
