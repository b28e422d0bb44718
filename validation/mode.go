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
	"fmt"

	"github.com/ava-labs/validationtracer/vm"
)

// A Mode is the validation phase currently being traced.
type Mode uint8

const (
	// NoValidation places no restrictions on execution.
	NoValidation Mode = iota
	// UserTxValidation is active while the account validates a transaction.
	UserTxValidation
	// PaymasterTxValidation is active while the paymaster validates a
	// transaction. It is tracked but no rules are enforced.
	PaymasterTxValidation
)

func (m Mode) String() string {
	switch m {
	case NoValidation:
		return "NoValidation"
	case UserTxValidation:
		return "UserTxValidation"
	case PaymasterTxValidation:
		return "PaymasterTxValidation"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode is the inverse of [Mode.String].
func ParseMode(s string) (Mode, error) {
	for m := NoValidation; m <= PaymasterTxValidation; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown validation mode %q", s)
}

// A Hook is a lifecycle signal raised by the bootloader.
type Hook uint8

// Hooks. Only the first five affect the [Tracer]; the rest are reported by
// classifiers for other consumers and ignored here.
const (
	NoHook Hook = iota
	AccountValidationEntered
	PaymasterValidationEntered
	NoValidationEntered
	ValidationStepEnded
	TxHasEnded
	DebugLog
	DebugReturnData
	NearCallCatch
	AskOperatorForRefund
	NotifyAboutRefund
	ExecutionResult
)

var hookNames = [...]string{
	NoHook:                     "NoHook",
	AccountValidationEntered:   "AccountValidationEntered",
	PaymasterValidationEntered: "PaymasterValidationEntered",
	NoValidationEntered:        "NoValidationEntered",
	ValidationStepEnded:        "ValidationStepEnded",
	TxHasEnded:                 "TxHasEnded",
	DebugLog:                   "DebugLog",
	DebugReturnData:            "DebugReturnData",
	NearCallCatch:              "NearCallCatch",
	AskOperatorForRefund:       "AskOperatorForRefund",
	NotifyAboutRefund:          "NotifyAboutRefund",
	ExecutionResult:            "ExecutionResult",
}

func (h Hook) String() string {
	if int(h) < len(hookNames) {
		return hookNames[h]
	}
	return fmt.Sprintf("Hook(%d)", uint8(h))
}

// ParseHook is the inverse of [Hook.String]. The empty string is [NoHook].
func ParseHook(s string) (Hook, error) {
	if s == "" {
		return NoHook, nil
	}
	for h, name := range hookNames {
		if name == s {
			return Hook(h), nil //nolint:gosec // G115 index of a short table
		}
	}
	return 0, fmt.Errorf("unknown hook %q", s)
}

// A HookClassifier recognises lifecycle hooks from the instruction about to be
// executed. It MUST be a pure function of its arguments.
type HookClassifier interface {
	Classify(*vm.State, *vm.Instruction, vm.Memory) Hook
}

// HookClassifierFunc adapts an ordinary function to a [HookClassifier].
type HookClassifierFunc func(*vm.State, *vm.Instruction, vm.Memory) Hook

// Classify implements [HookClassifier].
func (f HookClassifierFunc) Classify(s *vm.State, i *vm.Instruction, m vm.Memory) Hook {
	return f(s, i, m)
}

// noHooks is the default classifier, which never reports a hook.
var noHooks = HookClassifierFunc(func(*vm.State, *vm.Instruction, vm.Memory) Hook {
	return NoHook
})

// A TransitionFault is the panic value raised when a hook would nest one
// validation phase inside another. It indicates that the hook classifier and
// the bootloader disagree about the validation protocol, and is deliberately
// not an error: continuing would run unchecked validation code.
type TransitionFault struct {
	Mode Mode
	Hook Hook
}

func (f *TransitionFault) String() string {
	return fmt.Sprintf("Unallowed transition inside the validation tracer. Mode: %v, hook: %v", f.Mode, f.Hook)
}

// transition returns the mode after `h` is observed in mode `m`, and whether
// execution must stop. It panics with a [*TransitionFault] on nested entry.
func transition(m Mode, h Hook) (next Mode, stop bool) {
	switch h {
	case AccountValidationEntered, PaymasterValidationEntered:
		if m != NoValidation {
			panic(&TransitionFault{Mode: m, Hook: h})
		}
		if h == AccountValidationEntered {
			return UserTxValidation, false
		}
		return PaymasterTxValidation, false

	case NoValidationEntered:
		return NoValidation, false

	case ValidationStepEnded:
		return m, true

	default:
		return m, false
	}
}
