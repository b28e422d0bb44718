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
	"errors"
	"testing"

	"github.com/ava-labs/libevm/common"
	"github.com/ava-labs/libevm/ethdb"
	"github.com/ava-labs/libevm/ethdb/memorydb"
	"github.com/ava-labs/libevm/log"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/validationtracer/internal/logtest"
	"github.com/ava-labs/validationtracer/system"
)

func TestCodeKey(t *testing.T) {
	addr := common.HexToAddress("0xc0de")
	got := CodeKey(addr)
	assert.Equal(t, system.AccountCodeStorageAddress, got.Account, "account")
	assert.Equal(t, common.HexToHash("0xc0de"), got.Slot, "slot is left-padded address")
}

func TestDBRoundTrip(t *testing.T) {
	kv := memorydb.New()
	db := NewDB(kv)

	a := NewKey(common.HexToAddress("0xaa"), uint256.NewInt(7))
	b := NewKey(common.HexToAddress("0xbb"), uint256.NewInt(7))
	val := common.HexToHash("0x1234")

	assert.Zero(t, db.GetValue(a), "GetValue() of unwritten key")

	require.NoError(t, Write(kv, a, val), "Write(a)")
	assert.Equal(t, val, db.GetValue(a), "GetValue(a) after Write(a)")
	assert.Zero(t, db.GetValue(b), "GetValue(b) after Write(a)")

	require.NoError(t, Write(kv, a, common.Hash{}), "Write(a, 0)")
	ok, err := kv.Has(a.dbKey())
	require.NoError(t, err)
	assert.False(t, ok, "zero value deleted from backing store")
	assert.Zero(t, db.GetValue(a), "GetValue(a) after zeroing")
}

type failingKV struct {
	ethdb.KeyValueReader
	hasErr, getErr error
}

func (f failingKV) Has([]byte) (bool, error) { return true, f.hasErr }
func (f failingKV) Get([]byte) ([]byte, error) {
	return []byte{1}, f.getErr
}

func TestDBFailsClosed(t *testing.T) {
	errBackend := errors.New("backend down")
	k := NewKey(common.HexToAddress("0xaa"), uint256.NewInt(0))

	for name, kv := range map[string]failingKV{
		"has_error": {hasErr: errBackend},
		"get_error": {getErr: errBackend},
	} {
		t.Run(name, func(t *testing.T) {
			rec := logtest.NewRecorder(t, log.LevelWarn)
			assert.Zero(t, NewDB(kv, WithLogger(rec.Logger())).GetValue(k))

			warns := rec.AtLevel(log.LevelWarn)
			require.Len(t, warns, 1, "warnings logged")
			assert.Equal(t, errBackend.Error(), warns[0].Attrs["err"].String())
		})
	}

	t.Run("healthy", func(t *testing.T) {
		assert.Equal(t, common.BytesToHash([]byte{1}), NewDB(failingKV{}).GetValue(k))
	})
}
