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
	"math"

	"github.com/ava-labs/validationtracer/system"
	"github.com/ava-labs/validationtracer/vm"
)

// ComputationalGas bounds the work done during validation, independently of
// the gas that the VM itself charges.
type ComputationalGas struct {
	Used  uint32
	Limit uint32
}

// Exceeded reports whether more than Limit has been used.
func (g ComputationalGas) Exceeded() bool {
	return g.Used > g.Limit
}

// Charge adds `price` to Used, saturating at the maximum uint32.
func (g *ComputationalGas) Charge(price uint32) {
	g.Used = saturatingAdd(g.Used, price)
}

func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// ComputationalGasPrice estimates the cost of executing `instr`: the opcode's
// base price plus, for calls into the hashing and signature-recovery
// precompiles, the cost that the precompile declares in its second operand.
// Decommitment and memory growth are not included.
func ComputationalGasPrice(state *vm.State, instr *vm.Instruction) uint32 {
	price := instr.ErgsPrice
	if l, ok := instr.Opcode.AsLog(); ok && l == vm.PrecompileCall {
		if system.IsPricedPrecompile(state.Current.ThisAddress) {
			price = saturatingAdd(price, uint32(instr.Src1[0])) //nolint:gosec // G115 low 32 bits by definition
		}
	}
	return price
}
