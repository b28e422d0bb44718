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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"
)

// A Slot is a storage slot of a specific contract.
type Slot struct {
	Address common.Address
	Key     uint256.Int
}

// NewSlot is a convenience constructor for a [Slot] with a small key.
func NewSlot(addr common.Address, key uint64) Slot {
	return Slot{Address: addr, Key: *uint256.NewInt(key)}
}

// TrustSets are the storage locations that validation code may read in
// addition to those that are intrinsically allowed. They only ever grow.
type TrustSets struct {
	slots        mapset.Set[Slot]
	addresses    mapset.Set[common.Address]
	addressSlots mapset.Set[Slot]
	// auxiliary slots are discovered during execution and are trusted under
	// any contract address.
	auxiliary mapset.Set[common.Hash]
}

// NewTrustSets seeds the sets with explicitly trusted slots, whole contracts
// and indirection slots. An indirection slot is itself trusted, and the
// address held in it becomes trusted once it is read.
func NewTrustSets(slots []Slot, addresses []common.Address, addressSlots []Slot) *TrustSets {
	return &TrustSets{
		slots:        mapset.NewThreadUnsafeSet(slots...),
		addresses:    mapset.NewThreadUnsafeSet(addresses...),
		addressSlots: mapset.NewThreadUnsafeSet(addressSlots...),
		auxiliary:    mapset.NewThreadUnsafeSet[common.Hash](),
	}
}

// IsTrustedSlot reports whether (addr, key) was seeded as a trusted slot.
func (s *TrustSets) IsTrustedSlot(addr common.Address, key *uint256.Int) bool {
	return s.slots.Contains(Slot{addr, *key})
}

// IsTrustedAddress reports whether every slot of `addr` is trusted.
func (s *TrustSets) IsTrustedAddress(addr common.Address) bool {
	return s.addresses.Contains(addr)
}

// IsAddressSlot reports whether (addr, key) is an indirection slot.
func (s *TrustSets) IsAddressSlot(addr common.Address, key *uint256.Int) bool {
	return s.addressSlots.Contains(Slot{addr, *key})
}

// IsAuxiliarySlot reports whether `key` has been discovered as trusted.
func (s *TrustSets) IsAuxiliarySlot(key common.Hash) bool {
	return s.auxiliary.Contains(key)
}

// NewTrustedItems are additions to [TrustSets] discovered by a single
// instruction. The zero value means that nothing new was learnt.
type NewTrustedItems struct {
	Slots     []common.Hash
	Addresses []common.Address
}

// Empty reports whether there is nothing to merge.
func (n NewTrustedItems) Empty() bool {
	return len(n.Slots) == 0 && len(n.Addresses) == 0
}

// Merge adds the slots in `n` to the auxiliary set and its addresses to the
// trusted addresses.
func (s *TrustSets) Merge(n NewTrustedItems) {
	s.auxiliary.Append(n.Slots...)
	s.addresses.Append(n.Addresses...)
}

// Sizes returns the number of entries in each set, for logging.
func (s *TrustSets) Sizes() (slots, addresses, addressSlots, auxiliary int) {
	return s.slots.Cardinality(), s.addresses.Cardinality(), s.addressSlots.Cardinality(), s.auxiliary.Cardinality()
}
