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
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"

	"github.com/versodb/verso/backend/ldb"
	"github.com/versodb/verso/common"
	"github.com/versodb/verso/common/diagnostics"
	"github.com/versodb/verso/database/archive"
	"github.com/versodb/verso/database/store"
)

var StressCmd = cli.Command{
	Action: diagnostics.AddPerformanceDiagnosticsAction(doStress, &diagnosticsFlag, &cpuProfileFlag, &traceFlag),
	Name:   "stress",
	Usage:  "run a randomized insert/lookup/delete workload against a disk-backed store",
	Flags: []cli.Flag{
		&numOpsFlag,
		&tmpDirFlag,
		&reportPeriodFlag,
		&seedFlag,
	},
}

var (
	numOpsFlag = cli.IntFlag{
		Name:  "num-ops",
		Usage: "the number of operations to perform",
		Value: 1_000_000,
	}
	tmpDirFlag = cli.StringFlag{
		Name:  "tmp-dir",
		Usage: "the directory to place the state into",
	}
	reportPeriodFlag = cli.DurationFlag{
		Name:  "report-period",
		Usage: "the time between progress reports",
		Value: 5 * time.Second,
	}
	seedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "the seed for the workload's random generator",
		Value: 0,
	}
)

func doStress(context *cli.Context) error {
	numOps := context.Int(numOpsFlag.Name)
	reportPeriod := context.Duration(reportPeriodFlag.Name)
	seed := context.Int64(seedFlag.Name)

	tmpDir := context.String(tmpDirFlag.Name)
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	dir, err := os.MkdirTemp(tmpDir, "verso-stress-*")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	fmt.Printf("Running stress test in %s ..\n", dir)
	fmt.Printf("Total system memory: %d MiB\n", memory.TotalMemory()>>20)

	db, err := ldb.Open(filepath.Join(dir, "live"))
	if err != nil {
		return err
	}
	arch, err := archive.Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		return err
	}
	st, err := store.NewStore(store.Config{
		Backend: db,
		Archive: arch,
		Codec:   common.StringCodec{},
	})
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	lastReport := time.Now()
	lastOps := 0
	for i := 0; i < numOps; i++ {
		key := randomKey(rng)
		switch p := rng.Intn(10); {
		case p < 6:
			value := fmt.Sprintf("value-%d", i)
			if _, err := store.Insert(st, key, value); err != nil {
				return err
			}
		case p < 9:
			if guard, found := store.Lookup[string](st, key); found {
				_ = *guard.Value()
			}
		default:
			if _, _, err := st.Delete(key); err != nil {
				return err
			}
		}

		if time.Since(lastReport) >= reportPeriod {
			rate := float64(i-lastOps) / time.Since(lastReport).Seconds()
			fmt.Printf("%d of %d ops, %.1f ops/s, heap %d MiB\n",
				i, numOps, rate, getMemoryUsage()>>20)
			lastReport = time.Now()
			lastOps = i
		}
	}

	digest, err := st.Digest().Await().Get()
	if err != nil {
		return err
	}
	if err := st.Flush(); err != nil {
		return err
	}
	fmt.Printf("Final digest: %s\n", digest)
	fmt.Printf("Disk usage: %d KiB\n", getDirectorySize(dir)>>10)
	return st.Close()
}

// randomKey draws a short key from a narrow alphabet, so that the workload
// produces plenty of shared prefixes and overwrites.
func randomKey(rng *rand.Rand) string {
	const alphabet = "abcdef"
	length := 1 + rng.Intn(8)
	key := make([]byte, length)
	for i := range key {
		key[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(key)
}

// getMemoryUsage returns the amount of heap memory currently in use.
func getMemoryUsage() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// getDirectorySize computes the size of all files in the given directory in
// bytes.
func getDirectorySize(directory string) int64 {
	var size int64
	_ = filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}
