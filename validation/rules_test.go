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

package validation

import (
	"errors"
	"testing"

	"github.com/ava-labs/libevm/common"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestViolatedRuleError(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000ab")

	tests := []struct {
		rule     *ViolatedRule
		want     string
		sentinel error
	}{
		{
			rule:     disallowedStorageSlot(addr, u256(0x10)),
			want:     "Touched unallowed storage slots: address 00000000000000000000000000000000000000ab, key: 0000000000000000000000000000000000000000000000000000000000000010",
			sentinel: ErrTouchedDisallowedStorageSlot,
		},
		{
			rule:     contractWithNoCode(addr),
			want:     "Called contract with no code: 00000000000000000000000000000000000000ab",
			sentinel: ErrCalledContractWithNoCode,
		},
		{
			rule:     disallowedContext(),
			want:     "Touched unallowed context",
			sentinel: ErrTouchedDisallowedContext,
		},
		{
			rule:     exceededBudget(500),
			want:     "Took too many computational gas, allowed limit: 500",
			sentinel: ErrExceededComputationalBudget,
		},
	}

	sentinels := []error{
		ErrTouchedDisallowedStorageSlot,
		ErrCalledContractWithNoCode,
		ErrTouchedDisallowedContext,
		ErrExceededComputationalBudget,
	}

	for _, tt := range tests {
		t.Run(tt.rule.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Error())
			for _, s := range sentinels {
				assert.Equalf(t, s == tt.sentinel, errors.Is(tt.rule, s), "errors.Is(%v, %v)", tt.rule.Kind, s)
			}

			v := tt.rule.LogValue()
			assert.Equal(t, slog.KindGroup, v.Kind())
			assert.Equal(t, tt.rule.Kind.String(), v.Group()[0].Value.String(), "first attribute is the rule")
		})
	}
}

func TestValidationErrorMessages(t *testing.T) {
	assert.Equal(t, "Validation revert: out of funds", FailedTx("out of funds").Error())
	assert.NoError(t, errors.Unwrap(FailedTx("x")))

	err := Violated(exceededBudget(7))
	assert.Equal(t, "Violated validation rules: Took too many computational gas, allowed limit: 7", err.Error())

	var rule *ViolatedRule
	if assert.ErrorAs(t, err, &rule) {
		assert.Equal(t, uint32(7), rule.Limit)
	}
}
