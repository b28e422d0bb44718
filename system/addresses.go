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

// Package system lists the addresses of the protocol's system contracts and
// precompiles.
package system

import "github.com/ava-labs/libevm/common"

// Precompiles.
var (
	ECRecoverPrecompileAddress = common.HexToAddress("0x01")
	SHA256PrecompileAddress    = common.HexToAddress("0x02")
	Keccak256PrecompileAddress = common.HexToAddress("0x8010")
)

// System contracts, all in the kernel space below 0xffff.
var (
	BootloaderAddress         = common.HexToAddress("0x8001")
	AccountCodeStorageAddress = common.HexToAddress("0x8002")
	NonceHolderAddress        = common.HexToAddress("0x8003")
	KnownCodesStorageAddress  = common.HexToAddress("0x8004")
	ImmutableSimulatorAddress = common.HexToAddress("0x8005")
	ContractDeployerAddress   = common.HexToAddress("0x8006")
	ForceDeployerAddress      = common.HexToAddress("0x8007")
	L1MessengerAddress        = common.HexToAddress("0x8008")
	MsgValueSimulatorAddress  = common.HexToAddress("0x8009")
	L2EthTokenAddress         = common.HexToAddress("0x800a")
	SystemContextAddress      = common.HexToAddress("0x800b")
)

// ChainIDSlot is the storage slot of the system context contract that holds
// the chain ID.
const ChainIDSlot = 0

// IsPricedPrecompile reports whether `addr` is a precompile whose
// declared cost is charged on top of the PrecompileCall opcode.
func IsPricedPrecompile(addr common.Address) bool {
	return addr == Keccak256PrecompileAddress ||
		addr == SHA256PrecompileAddress ||
		addr == ECRecoverPrecompileAddress
}
