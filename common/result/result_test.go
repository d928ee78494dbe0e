// Copyright (c) 2026 Verso Labs
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at versolabs.io/bsl11.
//
// Change Date: 2029-8-1
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package result

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResult_Ok_ProducesResultWithValue(t *testing.T) {
	require := require.New(t)

	value, err := Ok(42).Get()
	require.NoError(err)
	require.Equal(42, value)
}

func TestResult_Err_ProducesResultWithError(t *testing.T) {
	require := require.New(t)

	issue := fmt.Errorf("something went wrong")
	value, err := Err[int](issue).Get()
	require.ErrorIs(err, issue)
	require.Zero(value)
}

func TestResult_Of_WrapsValueErrorPair(t *testing.T) {
	require := require.New(t)

	value, err := Of("hello", nil).Get()
	require.NoError(err)
	require.Equal("hello", value)

	issue := fmt.Errorf("something went wrong")
	value, err = Of("", issue).Get()
	require.ErrorIs(err, issue)
	require.Zero(value)
}

func TestResult_ZeroValueIsOkWithZeroValue(t *testing.T) {
	require := require.New(t)

	var r Result[int]
	value, err := r.Get()
	require.NoError(err)
	require.Zero(value)
}
