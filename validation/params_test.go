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
	"encoding/json"
	"testing"

	"github.com/ava-labs/libevm/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsFromJSON(t *testing.T) {
	const in = `{
		"userAddress": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"paymasterAddress": "0x0000000000000000000000000000000000009a11",
		"trustedSlots": [
			{
				"address": "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
				"key": "0x0000000000000000000000000000000000000000000000000000000000000003"
			}
		],
		"trustedAddresses": ["0x000000000000000000000000000000000000800a"],
		"trustedAddressSlots": [
			{
				"address": "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
				"key": "0x00000000000000000000000000000000000000000000000000000000000000ff"
			}
		],
		"computationalGasLimit": "0x3e8"
	}`

	got, err := ParamsFromJSON([]byte(in))
	require.NoError(t, err)

	want := Params{
		UserAddress:           user,
		PaymasterAddress:      paymaster,
		TrustedSlots:          []Slot{NewSlot(stranger, 3)},
		TrustedAddresses:      []common.Address{common.HexToAddress("0x800a")},
		TrustedAddressSlots:   []Slot{NewSlot(stranger, 0xff)},
		ComputationalGasLimit: 1000,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParamsFromJSON() diff (-want +got):\n%s", diff)
	}

	buf, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `"computationalGasLimit":"0x3e8"`)
}

func TestParamsFromJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{
			name:    "gas_limit_overflow",
			in:      `{"computationalGasLimit": "0x100000000"}`,
			wantErr: errGasLimitRange,
		},
		{
			name: "decimal_gas_limit",
			in:   `{"computationalGasLimit": 1000}`,
		},
		{
			name: "short_address",
			in:   `{"userAddress": "0x1234"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParamsFromJSON([]byte(tt.in))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
