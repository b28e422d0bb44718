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
	"testing"

	"github.com/ava-labs/libevm/common"
	"github.com/stretchr/testify/assert"
)

func TestSimpleMemory(t *testing.T) {
	var m SimpleMemory
	assert.Equal(t, make([]byte, 4), m.Read(HeapPage(0), 0, 4), "empty memory")

	m.Write(2, 3, []byte{1, 2, 3})
	m.Write(2, 1, []byte{9})

	tests := []struct {
		name   string
		page   MemoryPage
		offset uint32
		length uint32
		want   []byte
	}{
		{"prefix", 2, 0, 4, []byte{0, 9, 0, 1}},
		{"straddles_end", 2, 4, 4, []byte{2, 3, 0, 0}},
		{"beyond_end", 2, 100, 2, []byte{0, 0}},
		{"other_page", 3, 3, 3, []byte{0, 0, 0}},
		{"empty", 2, 3, 0, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Read(tt.page, tt.offset, tt.length))
		})
	}
}

func TestReadAtClearsDestination(t *testing.T) {
	var m SimpleMemory
	m.Write(0, 0, []byte{7})

	dst := []byte{0xff, 0xff, 0xff}
	m.ReadAt(0, 0, dst)
	assert.Equal(t, []byte{7, 0, 0}, dst)
}

func TestFramePages(t *testing.T) {
	const base MemoryPage = 8
	assert.Equal(t,
		[]MemoryPage{8, 9, 10, 11},
		[]MemoryPage{CodePage(base), StackPage(base), HeapPage(base), AuxHeapPage(base)},
	)
}

func TestAddressU256(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	v := AddressToU256(addr)
	assert.Equal(t, uint64(0xdeadbeef), v.Uint64())

	v[3] = 1 // high bits are not part of the address
	assert.Equal(t, addr, AddressFromU256(v))
}
