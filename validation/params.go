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
	"encoding/json"
	"fmt"
	"math"

	"github.com/ava-labs/libevm/common"
	"github.com/ava-labs/libevm/common/hexutil"
	"github.com/ava-labs/libevm/libevm/options"
	"github.com/ava-labs/libevm/log"
	"github.com/ava-labs/libevm/metrics"
)

// Params are the per-transaction inputs to a [Tracer].
type Params struct {
	UserAddress      common.Address
	PaymasterAddress common.Address
	// TrustedSlots may be read by the user regardless of other rules.
	TrustedSlots []Slot
	// TrustedAddresses may have any of their slots read.
	TrustedAddresses []common.Address
	// TrustedAddressSlots are trusted slots holding an address that becomes
	// trusted once the slot is read, as with the implementation address of a
	// beacon proxy.
	TrustedAddressSlots []Slot
	// ComputationalGasLimit bounds the work done during user validation.
	ComputationalGasLimit uint32
}

type slotJSON struct {
	Address common.Address `json:"address"`
	Key     common.Hash    `json:"key"`
}

// MarshalJSON encodes the key as a 32-byte hex string.
func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{Address: s.Address, Key: s.Key.Bytes32()})
}

// UnmarshalJSON is the inverse of [Slot.MarshalJSON].
func (s *Slot) UnmarshalJSON(data []byte) error {
	var j slotJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.Address = j.Address
	s.Key.SetBytes32(j.Key[:])
	return nil
}

type paramsJSON struct {
	UserAddress           common.Address   `json:"userAddress"`
	PaymasterAddress      common.Address   `json:"paymasterAddress"`
	TrustedSlots          []Slot           `json:"trustedSlots"`
	TrustedAddresses      []common.Address `json:"trustedAddresses"`
	TrustedAddressSlots   []Slot           `json:"trustedAddressSlots"`
	ComputationalGasLimit hexutil.Uint64   `json:"computationalGasLimit"`
}

// MarshalJSON implements [json.Marshaler], encoding the gas limit as a hex
// quantity.
func (p Params) MarshalJSON() ([]byte, error) {
	return json.Marshal(paramsJSON{
		UserAddress:           p.UserAddress,
		PaymasterAddress:      p.PaymasterAddress,
		TrustedSlots:          p.TrustedSlots,
		TrustedAddresses:      p.TrustedAddresses,
		TrustedAddressSlots:   p.TrustedAddressSlots,
		ComputationalGasLimit: hexutil.Uint64(p.ComputationalGasLimit),
	})
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Params) UnmarshalJSON(data []byte) error {
	var j paramsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.ComputationalGasLimit > math.MaxUint32 {
		return fmt.Errorf("%w: %d", errGasLimitRange, j.ComputationalGasLimit)
	}
	*p = Params{
		UserAddress:           j.UserAddress,
		PaymasterAddress:      j.PaymasterAddress,
		TrustedSlots:          j.TrustedSlots,
		TrustedAddresses:      j.TrustedAddresses,
		TrustedAddressSlots:   j.TrustedAddressSlots,
		ComputationalGasLimit: uint32(j.ComputationalGasLimit),
	}
	return nil
}

var errGasLimitRange = fmt.Errorf("computational gas limit exceeds %d", uint32(math.MaxUint32))

// ParamsFromJSON parses Params as produced by [Params.MarshalJSON].
func ParamsFromJSON(buf []byte) (Params, error) {
	var p Params
	if err := json.Unmarshal(buf, &p); err != nil {
		return Params{}, fmt.Errorf("parsing validation params: %w", err)
	}
	return p, nil
}

// An Option configures a [Tracer].
type Option = options.Option[config]

type config struct {
	classifier HookClassifier
	logger     log.Logger
	metrics    *tracerMetrics
}

func newConfig(opts ...Option) *config {
	c := options.As(opts...)
	if c.classifier == nil {
		c.classifier = noHooks
	}
	if c.logger == nil {
		c.logger = log.Root()
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c
}

// WithHookClassifier sets the function that recognises lifecycle hooks. By
// default no hooks are recognised and the [Tracer] stays in [NoValidation].
func WithHookClassifier(h HookClassifier) Option {
	return options.Func[config](func(c *config) {
		c.classifier = h
	})
}

// WithLogger overrides the default, root logger.
func WithLogger(l log.Logger) Option {
	return options.Func[config](func(c *config) {
		c.logger = l
	})
}

// WithMetricsRegistry registers metrics with `r` instead of the default
// registry.
func WithMetricsRegistry(r metrics.Registry) Option {
	return options.Func[config](func(c *config) {
		c.metrics = newMetrics(r)
	})
}
