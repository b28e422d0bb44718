// Copyright 2025 the libevm authors.
//
// The libevm additions to go-ethereum are free software: you can redistribute
// them and/or modify them under the terms of the GNU Lesser General Public License
// as published by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// The libevm additions are distributed in the hope that they will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see
// <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"testing"

	"github.com/ava-labs/libevm/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/validationtracer/replay"
	"github.com/ava-labs/validationtracer/validation"
)

func TestReport(t *testing.T) {
	color.NoColor = true

	results := []*replay.Result{
		{
			Name:     "ok",
			Executed: 4,
			Mode:     validation.UserTxValidation,
			Stopped:  true,
			Gas:      validation.ComputationalGas{Used: 3, Limit: 10},
		},
		{
			Name:       "bad",
			Executed:   2,
			Violation:  &validation.ViolatedRule{Kind: validation.CalledContractWithNoCode, Address: common.HexToAddress("0xff")},
			Mismatches: []string{"violation: got CalledContractWithNoCode; want "},
		},
	}

	var buf bytes.Buffer
	assert.Equal(t, 1, report(&buf, results), "failed")

	out := buf.String()
	for _, want := range []string{
		"PASS", "FAIL", "UserTxValidation", "3/10",
		"Called contract with no code: 00000000000000000000000000000000000000ff",
	} {
		assert.Contains(t, out, want)
	}
}
