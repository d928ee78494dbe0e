// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/versodb/verso/common"
	"github.com/versodb/verso/common/diagnostics"
	"github.com/versodb/verso/database/store"
)

var BenchmarkCmd = cli.Command{
	Action: diagnostics.AddPerformanceDiagnosticsAction(doBenchmark, &diagnosticsFlag, &cpuProfileFlag, &traceFlag),
	Name:   "benchmark",
	Usage:  "measure insert, lookup, and digest performance of an in-memory store",
	Flags: []cli.Flag{
		&numKeysFlag,
	},
}

var numKeysFlag = cli.IntFlag{
	Name:  "num-keys",
	Usage: "the number of keys to fill the store with",
	Value: 1_000_000,
}

func doBenchmark(context *cli.Context) error {
	numKeys := context.Int(numKeysFlag.Name)

	st, err := store.NewStore(store.Config{Codec: common.Uint256Codec{}})
	if err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < numKeys; i++ {
		value := *uint256.NewInt(uint64(i))
		if _, err := store.Insert(st, benchmarkKey(i), value); err != nil {
			return err
		}
	}
	insertTime := time.Since(start)
	fmt.Printf("Inserted %d keys in %v (%.1f inserts/s)\n",
		numKeys, insertTime, float64(numKeys)/insertTime.Seconds())

	start = time.Now()
	misses := 0
	for i := 0; i < numKeys; i++ {
		if _, found := store.Lookup[uint256.Int](st, benchmarkKey(i)); !found {
			misses++
		}
	}
	lookupTime := time.Since(start)
	fmt.Printf("Looked up %d keys in %v (%.1f lookups/s, %d misses)\n",
		numKeys, lookupTime, float64(numKeys)/lookupTime.Seconds(), misses)

	start = time.Now()
	digest, err := st.Digest().Await().Get()
	if err != nil {
		return err
	}
	fmt.Printf("Digest %s computed in %v\n", digest, time.Since(start))
	return st.Close()
}

// benchmarkKey renders a key spreading consecutive indices over distinct
// top-level subtrees, to make the digest computation parallelizable.
func benchmarkKey(i int) string {
	return fmt.Sprintf("%02x/%06d", i%256, i)
}
