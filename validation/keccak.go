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
	"fmt"

	"github.com/ava-labs/libevm/common"
	"github.com/ava-labs/libevm/crypto"
)

// keccakMappingInputLen is the length of a Solidity mapping-slot preimage:
// a 32-byte key followed by the 32-byte slot of the mapping.
const keccakMappingInputLen = 2 * common.HashLength

// safeAddress decodes a 32-byte big-endian word as an address iff its top 12
// bytes are zero.
func safeAddress(word []byte) (common.Address, bool) {
	pad := word[:common.HashLength-common.AddressLength]
	for _, b := range pad {
		if b != 0 {
			return common.Address{}, false
		}
	}
	return common.BytesToAddress(word[len(pad):]), true
}

// SlotFromKeccakCall inspects the input to a keccak256 precompile call and
// returns the resulting hash if it is the storage slot of a value owned by
// `user`. This is the case if either:
//
//  1. The first word is `user`, as in `mapping(address => V)`; or
//  2. The second word is an already-trusted slot, as in the inner mapping of
//     `mapping(address => mapping(K => V))`.
//
// It panics if `calldata` is not exactly 64 bytes.
func (s *TrustSets) SlotFromKeccakCall(calldata []byte, user common.Address) (common.Hash, bool) {
	if len(calldata) != keccakMappingInputLen {
		panic(fmt.Sprintf("keccak mapping preimage of %d bytes; expected %d", len(calldata), keccakMappingInputLen))
	}

	key, position := calldata[:common.HashLength], calldata[common.HashLength:]
	addr, ok := safeAddress(key)
	if (ok && addr == user) || s.IsAuxiliarySlot(common.BytesToHash(position)) {
		return crypto.Keccak256Hash(calldata), true
	}
	return common.Hash{}, false
}
