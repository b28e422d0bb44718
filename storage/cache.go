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

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ava-labs/libevm/ethdb"
)

// ErrNotFound is returned by [CachedReader.Get] for absent keys.
var ErrNotFound = errors.New("not found")

// A CachedReader serves reads of a backing store from memory, including
// negative lookups. The backing store MUST NOT be written to while the
// CachedReader is in use, and empty values read as absent. It is safe for
// concurrent use if the backing store is.
type CachedReader struct {
	kv    ethdb.KeyValueReader
	cache *fastcache.Cache
}

var _ ethdb.KeyValueReader = (*CachedReader)(nil)

// NewCachedReader caches up to roughly `maxBytes` of `kv`.
func NewCachedReader(kv ethdb.KeyValueReader, maxBytes int) *CachedReader {
	return &CachedReader{
		kv:    kv,
		cache: fastcache.New(maxBytes),
	}
}

// Has implements [ethdb.KeyValueReader].
func (c *CachedReader) Has(key []byte) (bool, error) {
	v, err := c.get(key)
	return v != nil, err
}

// Get implements [ethdb.KeyValueReader].
func (c *CachedReader) Get(key []byte) ([]byte, error) {
	v, err := c.get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}

// get returns nil for absent keys.
func (c *CachedReader) get(key []byte) ([]byte, error) {
	if v, ok := c.cache.HasGet(nil, key); ok {
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	}

	ok, err := c.kv.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.cache.Set(key, nil)
		return nil, nil
	}
	v, err := c.kv.Get(key)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, v)
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

// Stats returns cache statistics.
func (c *CachedReader) Stats() fastcache.Stats {
	var s fastcache.Stats
	c.cache.UpdateStats(&s)
	return s
}
