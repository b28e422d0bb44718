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

package vm

import (
	"github.com/ava-labs/libevm/common"
	"github.com/holiman/uint256"
)

// A CallFrame is the part of the current call-stack entry that tracers see.
type CallFrame struct {
	ThisAddress    common.Address
	MsgSender      common.Address
	CodeAddress    common.Address
	BaseMemoryPage MemoryPage
	ErgsRemaining  uint32
}

// State is a snapshot of the machine taken before an instruction executes.
type State struct {
	Current CallFrame
	// Depth is the number of frames below Current.
	Depth int
}

// An Instruction is a decoded opcode together with the values of its two
// source operands. ErgsPrice is the opcode's base cost as reported by the
// decoder.
type Instruction struct {
	Opcode    Opcode
	Src0      uint256.Int
	Src1      uint256.Int
	ErgsPrice uint32
}

// AddressFromU256 returns the address held in the low 20 bytes of `v`.
func AddressFromU256(v *uint256.Int) common.Address {
	return common.Address(v.Bytes20())
}

// AddressToU256 is the inverse of [AddressFromU256].
func AddressToU256(a common.Address) *uint256.Int {
	return new(uint256.Int).SetBytes20(a[:])
}
