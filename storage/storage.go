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

// Package storage provides read access to contract storage, keyed by
// (contract address, 32-byte slot).
package storage

import (
	"fmt"

	"github.com/ava-labs/libevm/common"
	"github.com/ava-labs/libevm/ethdb"
	"github.com/ava-labs/libevm/libevm/options"
	"github.com/ava-labs/libevm/log"
	"github.com/holiman/uint256"

	"github.com/ava-labs/validationtracer/system"
)

// A Key identifies a single storage slot of a single contract.
type Key struct {
	Account common.Address
	Slot    common.Hash
}

// NewKey is a convenience constructor for a [Key] with a numeric slot.
func NewKey(account common.Address, slot *uint256.Int) Key {
	return Key{
		Account: account,
		Slot:    slot.Bytes32(),
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%v:%v", k.Account, k.Slot)
}

// CodeKey returns the key under which the account-code-storage contract
// records the code hash of `addr`. A zero value means that no code is
// deployed.
func CodeKey(addr common.Address) Key {
	return Key{
		Account: system.AccountCodeStorageAddress,
		Slot:    common.BytesToHash(addr.Bytes()),
	}
}

// A Reader returns the current value of a storage slot. Slots that have never
// been written read as the zero hash.
type Reader interface {
	GetValue(Key) common.Hash
}

// keyPrefix namespaces storage values within a shared key-value store.
var keyPrefix = []byte("vs")

// dbKey returns keyPrefix + account + slot.
func (k Key) dbKey() []byte {
	out := make([]byte, 0, len(keyPrefix)+common.AddressLength+common.HashLength)
	out = append(out, keyPrefix...)
	out = append(out, k.Account[:]...)
	return append(out, k.Slot[:]...)
}

// DB is a [Reader] backed by any [ethdb.KeyValueReader], e.g. memorydb,
// leveldb or pebble.
type DB struct {
	kv  ethdb.KeyValueReader
	log log.Logger
}

var _ Reader = (*DB)(nil)

// A DBOption configures a [DB].
type DBOption = options.Option[dbConfig]

type dbConfig struct {
	logger log.Logger
}

// WithLogger overrides the default, root logger used to report backend
// errors.
func WithLogger(l log.Logger) DBOption {
	return options.Func[dbConfig](func(c *dbConfig) {
		c.logger = l
	})
}

// NewDB wraps `kv` as a [Reader].
func NewDB(kv ethdb.KeyValueReader, opts ...DBOption) *DB {
	c := options.As(opts...)
	if c.logger == nil {
		c.logger = log.Root()
	}
	return &DB{kv: kv, log: c.logger}
}

// GetValue implements [Reader]. Backend errors are logged and read as the zero
// hash, which is never more permissive than the true value: every check that
// consults storage treats zero as "no code" or "nothing trusted".
func (db *DB) GetValue(k Key) common.Hash {
	key := k.dbKey()
	switch ok, err := db.kv.Has(key); {
	case err != nil:
		db.log.Warn("Checking storage key", "key", k, "err", err)
		return common.Hash{}
	case !ok:
		return common.Hash{}
	}

	val, err := db.kv.Get(key)
	if err != nil {
		db.log.Warn("Reading storage key", "key", k, "err", err)
		return common.Hash{}
	}
	return common.BytesToHash(val)
}

// Write stores `val` under `k`, deleting the entry if `val` is zero so that the
// store holds only non-empty slots.
func Write(w ethdb.KeyValueWriter, k Key, val common.Hash) error {
	key := k.dbKey()
	if val == (common.Hash{}) {
		if err := w.Delete(key); err != nil {
			return fmt.Errorf("deleting %v: %w", k, err)
		}
		return nil
	}
	if err := w.Put(key, val.Bytes()); err != nil {
		return fmt.Errorf("writing %v: %w", k, err)
	}
	return nil
}
