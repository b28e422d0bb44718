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

package storage

import (
	"testing"

	"github.com/ava-labs/libevm/common"
	"github.com/ava-labs/libevm/ethdb"
	"github.com/ava-labs/libevm/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingKV counts reads that reach the backing store.
type countingKV struct {
	ethdb.KeyValueReader
	has, get int
}

func (c *countingKV) Has(key []byte) (bool, error) {
	c.has++
	return c.KeyValueReader.Has(key)
}

func (c *countingKV) Get(key []byte) ([]byte, error) {
	c.get++
	return c.KeyValueReader.Get(key)
}

func TestCachedReader(t *testing.T) {
	kv := memorydb.New()
	present := NewKey(common.HexToAddress("0xaa"), uint256.NewInt(1))
	absent := NewKey(common.HexToAddress("0xaa"), uint256.NewInt(2))
	val := common.HexToHash("0xbeef")
	require.NoError(t, Write(kv, present, val))

	backing := &countingKV{KeyValueReader: kv}
	cached := NewCachedReader(backing, 1<<20)
	db := NewDB(cached)

	for range 3 {
		assert.Equal(t, val, db.GetValue(present))
		assert.Zero(t, db.GetValue(absent))
	}
	assert.Equal(t, 2, backing.has, "backing Has() calls")
	assert.Equal(t, 1, backing.get, "backing Get() calls")

	_, err := cached.Get(absent.dbKey())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotZero(t, cached.Stats().GetCalls, "Stats().GetCalls")
}
