// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package diagnostics

import (
	"net/http"
	_ "net/http/pprof"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestAddPerformanceDiagnosticsAction_EnablesAllDiagnostics(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	called := false
	action := func(ctx *cli.Context) error {
		require.FileExists(filepath.Join(dir, "cpu.profile"))
		require.FileExists(filepath.Join(dir, "trace.out"))

		// The diagnostic server starts asynchronously; poll until it answers.
		var statusCode int
		var lastErr error
		wait := 100 * time.Millisecond
		for range 10 {
			resp, err := http.Get("http://localhost:6060/debug/pprof/")
			lastErr = err
			if resp != nil {
				statusCode = resp.StatusCode
			}
			if statusCode == http.StatusOK {
				break
			}
			time.Sleep(wait)
			wait *= 2
		}
		require.NoError(lastErr)
		require.Equal(http.StatusOK, statusCode)

		called = true
		return nil
	}

	diagnosticsFlag := cli.IntFlag{Name: "diagnostics"}
	cpuProfileFlag := cli.StringFlag{Name: "cpu-profile"}
	traceFlag := cli.StringFlag{Name: "trace"}

	app := &cli.App{
		Action: AddPerformanceDiagnosticsAction(action, &diagnosticsFlag, &cpuProfileFlag, &traceFlag),
		Flags:  []cli.Flag{&diagnosticsFlag, &cpuProfileFlag, &traceFlag},
	}

	err := app.Run([]string{
		"cmd",
		"--diagnostics", "6060",
		"--cpu-profile", filepath.Join(dir, "cpu.profile"),
		"--trace", filepath.Join(dir, "trace.out"),
	})
	require.NoError(err)
	require.True(called, "the wrapped action must run")
}

func TestAddPerformanceDiagnosticsAction_AllDiagnosticsDisabledByDefault(t *testing.T) {
	require := require.New(t)

	diagnosticsFlag := cli.IntFlag{Name: "diagnostics"}
	cpuProfileFlag := cli.StringFlag{Name: "cpu-profile"}
	traceFlag := cli.StringFlag{Name: "trace"}

	called := false
	app := &cli.App{
		Action: AddPerformanceDiagnosticsAction(func(ctx *cli.Context) error {
			called = true
			return nil
		}, &diagnosticsFlag, &cpuProfileFlag, &traceFlag),
		Flags: []cli.Flag{&diagnosticsFlag, &cpuProfileFlag, &traceFlag},
	}

	require.NoError(app.Run([]string{"cmd"}))
	require.True(called)
}
