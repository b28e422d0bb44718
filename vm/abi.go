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
	"fmt"

	"github.com/holiman/uint256"
)

// A FatPointer describes a byte range within a memory page. Only the bytes in
// [Start, Start+Length) are addressable; Offset is relative to Start.
type FatPointer struct {
	Offset uint32
	Page   MemoryPage
	Start  uint32
	Length uint32
}

// FatPointerFromU256 decodes the low 128 bits of `v` as four little-endian
// 32-bit words: offset, page, start and length.
func FatPointerFromU256(v *uint256.Int) FatPointer {
	//nolint:gosec // G115 truncation is the encoding
	return FatPointer{
		Offset: uint32(v[0]),
		Page:   MemoryPage(v[0] >> 32),
		Start:  uint32(v[1]),
		Length: uint32(v[1] >> 32),
	}
}

// ToU256 is the inverse of [FatPointerFromU256].
func (p FatPointer) ToU256() *uint256.Int {
	return &uint256.Int{
		uint64(p.Offset) | uint64(p.Page)<<32,
		uint64(p.Start) | uint64(p.Length)<<32,
	}
}

// A ForwardPageType selects which memory a far call forwards to its callee.
type ForwardPageType uint8

const (
	// UseHeap forwards a slice of the caller's heap.
	UseHeap ForwardPageType = iota
	// ForwardFatPointer forwards an existing fat pointer unchanged.
	ForwardFatPointer
	// UseAuxHeap forwards a slice of the caller's auxiliary heap.
	UseAuxHeap
)

func (t ForwardPageType) String() string {
	switch t {
	case UseHeap:
		return "UseHeap"
	case ForwardFatPointer:
		return "ForwardFatPointer"
	case UseAuxHeap:
		return "UseAuxHeap"
	default:
		return fmt.Sprintf("ForwardPageType(%d)", uint8(t))
	}
}

// ParseForwardPageType is the inverse of [ForwardPageType.String].
func ParseForwardPageType(s string) (ForwardPageType, error) {
	for t := UseHeap; t <= UseAuxHeap; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown forwarding mode %q", s)
}

// A FarCallABI is the decoded form of the packed first operand of a far call.
type FarCallABI struct {
	MemoryQuasiFatPointer FatPointer
	ErgsPassed            uint32
	ShardID               uint8
	ForwardingMode        ForwardPageType
	ConstructorCall       bool
	ToSystem              bool
}

// FarCallABIFromU256 decodes a packed far-call descriptor. The low 128 bits
// are a [FatPointer]; the top 64 bits carry, from least significant, the
// ergs passed (32 bits), shard ID, forwarding mode, constructor flag and
// system flag (8 bits each). Unknown forwarding modes decode as [UseHeap].
func FarCallABIFromU256(v *uint256.Int) FarCallABI {
	hi := v[3]
	mode := ForwardPageType(hi >> 40) //nolint:gosec // G115 truncation is the encoding
	if mode > UseAuxHeap {
		mode = UseHeap
	}
	//nolint:gosec // G115 truncation is the encoding
	return FarCallABI{
		MemoryQuasiFatPointer: FatPointerFromU256(v),
		ErgsPassed:            uint32(hi),
		ShardID:               uint8(hi >> 32),
		ForwardingMode:        mode,
		ConstructorCall:       uint8(hi>>48) != 0,
		ToSystem:              uint8(hi>>56) != 0,
	}
}

// ToU256 is the inverse of [FarCallABIFromU256].
func (a FarCallABI) ToU256() *uint256.Int {
	v := a.MemoryQuasiFatPointer.ToU256()
	hi := uint64(a.ErgsPassed) |
		uint64(a.ShardID)<<32 |
		uint64(a.ForwardingMode)<<40
	if a.ConstructorCall {
		hi |= 1 << 48
	}
	if a.ToSystem {
		hi |= 1 << 56
	}
	v[3] = hi
	return v
}

// CalldataPage resolves the page from which the callee's input is read, given
// the caller's base memory page.
func (a FarCallABI) CalldataPage(base MemoryPage) MemoryPage {
	switch a.ForwardingMode {
	case ForwardFatPointer:
		return a.MemoryQuasiFatPointer.Page
	case UseAuxHeap:
		return AuxHeapPage(base)
	default:
		return HeapPage(base)
	}
}
