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
	"github.com/ava-labs/libevm/common"
	"github.com/holiman/uint256"

	"github.com/ava-labs/validationtracer/storage"
	"github.com/ava-labs/validationtracer/system"
	"github.com/ava-labs/validationtracer/vm"
)

// isValidEthTokenCall reports whether the read is the native token contract
// being driven by one of the system contracts that move value. Balance
// changes made this way are part of the protocol, not of user code.
func isValidEthTokenCall(addr, msgSender common.Address) bool {
	if addr != system.L2EthTokenAddress {
		return false
	}
	switch msgSender {
	case system.MsgValueSimulatorAddress, system.ContractDeployerAddress, system.BootloaderAddress:
		return true
	}
	return false
}

// touchesAllowedContext reports whether the read is of the only system
// context slot that user code may see: the chain ID.
func touchesAllowedContext(addr common.Address, key *uint256.Int) bool {
	return addr == system.SystemContextAddress && key.IsUint64() && key.Uint64() == system.ChainIDSlot
}

// isConstantCodeHash reports whether the read is a probe of a deployed
// account's code hash.
func isConstantCodeHash(addr common.Address, key *uint256.Int, r storage.Reader) bool {
	if addr != system.AccountCodeStorageAddress {
		return false
	}
	return r.GetValue(storage.NewKey(addr, key)) != (common.Hash{})
}

// isAllowedStorageRead reports whether `addr` may read slot `key` while called
// by `msgSender`. Cheaper checks run first so that storage is consulted only
// when nothing else allows the read.
func (t *Tracer) isAllowedStorageRead(addr common.Address, key *uint256.Int, msgSender common.Address) bool {
	// Paymaster validation is deliberately unchecked.
	if t.mode != UserTxValidation {
		return true
	}
	if isValidEthTokenCall(addr, msgSender) {
		return true
	}
	if t.sets.IsTrustedSlot(addr, key) || t.sets.IsTrustedAddress(addr) || t.sets.IsAddressSlot(addr, key) {
		return true
	}
	if touchesAllowedContext(addr, key) {
		return true
	}
	// The user's own slots and those keyed by, or derived from, the user.
	if addr == t.user || vm.AddressFromU256(key) == t.user || t.sets.IsAuxiliarySlot(key.Bytes32()) {
		return true
	}
	return isConstantCodeHash(addr, key, t.storage)
}
