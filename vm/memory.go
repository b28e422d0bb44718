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

// A MemoryPage indexes the VM's paged memory.
type MemoryPage uint32

// Offsets of a call frame's pages from its base page.
const (
	codePageOffset    = 0
	stackPageOffset   = 1
	heapPageOffset    = 2
	auxHeapPageOffset = 3
)

// CodePage returns the code page of the frame rooted at `base`.
func CodePage(base MemoryPage) MemoryPage { return base + codePageOffset }

// StackPage returns the stack page of the frame rooted at `base`.
func StackPage(base MemoryPage) MemoryPage { return base + stackPageOffset }

// HeapPage returns the heap page of the frame rooted at `base`.
func HeapPage(base MemoryPage) MemoryPage { return base + heapPageOffset }

// AuxHeapPage returns the auxiliary heap page of the frame rooted at `base`.
func AuxHeapPage(base MemoryPage) MemoryPage { return base + auxHeapPageOffset }

// Memory is read access to the VM's paged memory.
//
// ReadAt fills `dst` with the bytes starting at `offset` within `page`. Bytes
// that have never been written read as zero. Implementations MUST NOT retain
// `dst`.
type Memory interface {
	ReadAt(page MemoryPage, offset uint32, dst []byte)
}

// SimpleMemory is a sparse, growable [Memory] keyed by page. The zero value is
// ready for use.
type SimpleMemory struct {
	pages map[MemoryPage][]byte
}

var _ Memory = (*SimpleMemory)(nil)

// ReadAt implements [Memory].
func (m *SimpleMemory) ReadAt(page MemoryPage, offset uint32, dst []byte) {
	buf := m.pages[page]
	n := 0
	if start := uint64(offset); start < uint64(len(buf)) {
		n = copy(dst, buf[start:])
	}
	clear(dst[n:])
}

// Write copies `data` into `page` at `offset`, growing the page as needed.
func (m *SimpleMemory) Write(page MemoryPage, offset uint32, data []byte) {
	if m.pages == nil {
		m.pages = make(map[MemoryPage][]byte)
	}
	buf := m.pages[page]
	if end := int(offset) + len(data); end > len(buf) {
		grown := make([]byte, end)
		copy(grown, buf)
		buf = grown
	}
	copy(buf[offset:], data)
	m.pages[page] = buf
}

// Read is a convenience wrapper around [SimpleMemory.ReadAt] that allocates
// the returned buffer.
func (m *SimpleMemory) Read(page MemoryPage, offset, length uint32) []byte {
	out := make([]byte, length)
	m.ReadAt(page, offset, out)
	return out
}
