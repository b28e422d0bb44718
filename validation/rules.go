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
	"errors"
	"fmt"

	"github.com/ava-labs/libevm/common"
	"github.com/holiman/uint256"
	"golang.org/x/exp/slog"
)

// A RuleKind identifies which validation rule was violated.
type RuleKind uint8

// Rule kinds. The zero value is invalid so that an unset ViolatedRule is
// distinguishable.
const (
	TouchedDisallowedStorageSlot RuleKind = iota + 1
	CalledContractWithNoCode
	TouchedDisallowedContext
	ExceededComputationalBudget
)

func (k RuleKind) String() string {
	switch k {
	case TouchedDisallowedStorageSlot:
		return "TouchedDisallowedStorageSlot"
	case CalledContractWithNoCode:
		return "CalledContractWithNoCode"
	case TouchedDisallowedContext:
		return "TouchedDisallowedContext"
	case ExceededComputationalBudget:
		return "ExceededComputationalBudget"
	default:
		return fmt.Sprintf("RuleKind(%d)", uint8(k))
	}
}

// ParseRuleKind is the inverse of [RuleKind.String].
func ParseRuleKind(s string) (RuleKind, error) {
	for k := TouchedDisallowedStorageSlot; k <= ExceededComputationalBudget; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown validation rule %q", s)
}

// Sentinel errors matched by [ViolatedRule.Is].
var (
	ErrTouchedDisallowedStorageSlot = errors.New("touched disallowed storage slot")
	ErrCalledContractWithNoCode     = errors.New("called contract with no code")
	ErrTouchedDisallowedContext     = errors.New("touched disallowed context")
	ErrExceededComputationalBudget  = errors.New("exceeded computational budget")
)

func (k RuleKind) sentinel() error {
	switch k {
	case TouchedDisallowedStorageSlot:
		return ErrTouchedDisallowedStorageSlot
	case CalledContractWithNoCode:
		return ErrCalledContractWithNoCode
	case TouchedDisallowedContext:
		return ErrTouchedDisallowedContext
	case ExceededComputationalBudget:
		return ErrExceededComputationalBudget
	default:
		return nil
	}
}

// A ViolatedRule describes why validation-phase code was rejected. Only the
// fields relevant to Kind are populated:
//
//   - TouchedDisallowedStorageSlot: Address and Key
//   - CalledContractWithNoCode: Address
//   - TouchedDisallowedContext: none
//   - ExceededComputationalBudget: Limit
type ViolatedRule struct {
	Kind    RuleKind
	Address common.Address
	Key     uint256.Int
	Limit   uint32
}

var (
	_ error          = (*ViolatedRule)(nil)
	_ slog.LogValuer = (*ViolatedRule)(nil)
)

func disallowedStorageSlot(addr common.Address, key *uint256.Int) *ViolatedRule {
	return &ViolatedRule{Kind: TouchedDisallowedStorageSlot, Address: addr, Key: *key}
}

func contractWithNoCode(addr common.Address) *ViolatedRule {
	return &ViolatedRule{Kind: CalledContractWithNoCode, Address: addr}
}

func disallowedContext() *ViolatedRule {
	return &ViolatedRule{Kind: TouchedDisallowedContext}
}

func exceededBudget(limit uint32) *ViolatedRule {
	return &ViolatedRule{Kind: ExceededComputationalBudget, Limit: limit}
}

// Error implements the error interface.
func (r *ViolatedRule) Error() string {
	switch r.Kind {
	case TouchedDisallowedStorageSlot:
		key := r.Key.Bytes32()
		return fmt.Sprintf(
			"Touched unallowed storage slots: address %s, key: %s",
			common.Bytes2Hex(r.Address[:]), common.Bytes2Hex(key[:]),
		)
	case CalledContractWithNoCode:
		return fmt.Sprintf("Called contract with no code: %s", common.Bytes2Hex(r.Address[:]))
	case TouchedDisallowedContext:
		return "Touched unallowed context"
	case ExceededComputationalBudget:
		return fmt.Sprintf("Took too many computational gas, allowed limit: %d", r.Limit)
	default:
		return r.Kind.String()
	}
}

// Is reports whether `target` is the sentinel error of the rule's Kind, which
// allows callers to use [errors.Is] without inspecting fields.
func (r *ViolatedRule) Is(target error) bool {
	s := r.Kind.sentinel()
	return s != nil && s == target
}

// LogValue implements [slog.LogValuer].
func (r *ViolatedRule) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("rule", r.Kind.String())}
	switch r.Kind {
	case TouchedDisallowedStorageSlot:
		attrs = append(attrs,
			slog.String("address", r.Address.Hex()),
			slog.String("key", r.Key.Hex()),
		)
	case CalledContractWithNoCode:
		attrs = append(attrs, slog.String("address", r.Address.Hex()))
	case ExceededComputationalBudget:
		attrs = append(attrs, slog.Uint64("limit", uint64(r.Limit)))
	}
	return slog.GroupValue(attrs...)
}

// A ValidationError is the reason surfaced to users for a transaction that
// failed validation: either the validation code itself reverted, or it broke
// one of the rules enforced by the [Tracer]. Exactly one of Revert and Rule is
// set.
type ValidationError struct {
	// Revert is the formatted revert reason of a failed validation call.
	Revert string
	Rule   *ViolatedRule
}

// FailedTx returns a ValidationError for a reverted validation call.
func FailedTx(reason string) *ValidationError {
	return &ValidationError{Revert: reason}
}

// Violated returns a ValidationError for a violated rule.
func Violated(r *ViolatedRule) *ValidationError {
	return &ValidationError{Rule: r}
}

func (e *ValidationError) Error() string {
	if e.Rule != nil {
		return fmt.Sprintf("Violated validation rules: %v", e.Rule)
	}
	return fmt.Sprintf("Validation revert: %s", e.Revert)
}

// Unwrap returns the violated rule, if any.
func (e *ValidationError) Unwrap() error {
	if e.Rule == nil {
		return nil
	}
	return e.Rule
}
