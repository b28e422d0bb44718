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

// Package vm defines the view of the virtual machine that a tracer is given
// before each instruction executes: the decoded opcode and its operands, the
// top of the call stack, and read access to paged memory. The interpreter
// itself lives elsewhere; this package only carries its data.
package vm

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// An OpcodeKind is the top-level class of a decoded instruction.
type OpcodeKind uint8

// Opcode kinds, in decoder order.
const (
	Invalid OpcodeKind = iota
	Nop
	Add
	Sub
	Mul
	Div
	Jump
	Context
	Shift
	Binop
	Ptr
	NearCall
	Log
	FarCall
	Ret
	UMA
)

var kindNames = [...]string{
	Invalid:  "Invalid",
	Nop:      "Nop",
	Add:      "Add",
	Sub:      "Sub",
	Mul:      "Mul",
	Div:      "Div",
	Jump:     "Jump",
	Context:  "Context",
	Shift:    "Shift",
	Binop:    "Binop",
	Ptr:      "Ptr",
	NearCall: "NearCall",
	Log:      "Log",
	FarCall:  "FarCall",
	Ret:      "Ret",
	UMA:      "UMA",
}

func (k OpcodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("OpcodeKind(%d)", uint8(k))
}

// A ContextOpcode queries or updates execution context.
type ContextOpcode uint8

// Context opcode variants.
const (
	This ContextOpcode = iota
	Caller
	CodeAddress
	Meta
	ErgsLeft
	Sp
	GetContextU128
	SetContextU128
	SetErgsPerPubdataByte
	IncrementTxNumber
)

var contextNames = [...]string{
	This:                  "This",
	Caller:                "Caller",
	CodeAddress:           "CodeAddress",
	Meta:                  "Meta",
	ErgsLeft:              "ErgsLeft",
	Sp:                    "Sp",
	GetContextU128:        "GetContextU128",
	SetContextU128:        "SetContextU128",
	SetErgsPerPubdataByte: "SetErgsPerPubdataByte",
	IncrementTxNumber:     "IncrementTxNumber",
}

func (c ContextOpcode) String() string {
	if int(c) < len(contextNames) {
		return contextNames[c]
	}
	return fmt.Sprintf("ContextOpcode(%d)", uint8(c))
}

// A LogOpcode touches storage, events, L1 messages or precompiles.
type LogOpcode uint8

// Log opcode variants.
const (
	StorageRead LogOpcode = iota
	StorageWrite
	ToL1Message
	Event
	PrecompileCall
)

var logNames = [...]string{
	StorageRead:    "StorageRead",
	StorageWrite:   "StorageWrite",
	ToL1Message:    "ToL1Message",
	Event:          "Event",
	PrecompileCall: "PrecompileCall",
}

func (l LogOpcode) String() string {
	if int(l) < len(logNames) {
		return logNames[l]
	}
	return fmt.Sprintf("LogOpcode(%d)", uint8(l))
}

// A FarCallOpcode selects the flavour of a cross-contract call.
type FarCallOpcode uint8

// Far-call variants.
const (
	NormalCall FarCallOpcode = iota
	DelegateCall
	MimicCall
)

// A UMAOpcode is an unaligned memory access.
type UMAOpcode uint8

// Unaligned memory access variants.
const (
	HeapRead UMAOpcode = iota
	HeapWrite
	AuxHeapRead
	AuxHeapWrite
	FatPointerRead
)

// An Opcode is a decoded instruction's kind plus, for kinds that have them,
// the variant within that kind. Opcodes are comparable.
type Opcode struct {
	Kind    OpcodeKind
	Variant uint8
}

// ContextOp returns the Opcode for a [Context] instruction.
func ContextOp(c ContextOpcode) Opcode { return Opcode{Context, uint8(c)} }

// LogOp returns the Opcode for a [Log] instruction.
func LogOp(l LogOpcode) Opcode { return Opcode{Log, uint8(l)} }

// FarCallOp returns the Opcode for a [FarCall] instruction.
func FarCallOp(f FarCallOpcode) Opcode { return Opcode{FarCall, uint8(f)} }

// UMAOp returns the Opcode for a [UMA] instruction.
func UMAOp(u UMAOpcode) Opcode { return Opcode{UMA, uint8(u)} }

// AsContext returns the context variant and true iff o is a [Context] opcode.
func (o Opcode) AsContext() (ContextOpcode, bool) {
	return ContextOpcode(o.Variant), o.Kind == Context
}

// AsLog returns the log variant and true iff o is a [Log] opcode.
func (o Opcode) AsLog() (LogOpcode, bool) {
	return LogOpcode(o.Variant), o.Kind == Log
}

// IsFarCall reports whether o is any flavour of [FarCall].
func (o Opcode) IsFarCall() bool {
	return o.Kind == FarCall
}

func (o Opcode) String() string {
	switch o.Kind {
	case Context:
		return fmt.Sprintf("%v(%v)", o.Kind, ContextOpcode(o.Variant))
	case Log:
		return fmt.Sprintf("%v(%v)", o.Kind, LogOpcode(o.Variant))
	case FarCall, UMA:
		return fmt.Sprintf("%v(%d)", o.Kind, o.Variant)
	default:
		return o.Kind.String()
	}
}

// ErrUnknownOpcode is returned by [ParseOpcode] for unrecognised input.
var ErrUnknownOpcode = errors.New("unknown opcode")

// ParseOpcode is the inverse of [Opcode.String]. Variants of [FarCall] and
// [UMA] are numeric; a bare kind has the zero variant.
func ParseOpcode(s string) (Opcode, error) {
	kindName, variant, hasVariant := strings.Cut(s, "(")
	kind := slices.Index(kindNames[:], kindName)
	if kind < 0 {
		return Opcode{}, fmt.Errorf("%w %q", ErrUnknownOpcode, s)
	}
	o := Opcode{Kind: OpcodeKind(kind)}
	if !hasVariant {
		return o, nil
	}

	variant, ok := strings.CutSuffix(variant, ")")
	if !ok {
		return Opcode{}, fmt.Errorf("%w %q: unterminated variant", ErrUnknownOpcode, s)
	}
	v := -1
	switch o.Kind {
	case Context:
		v = slices.Index(contextNames[:], variant)
	case Log:
		v = slices.Index(logNames[:], variant)
	case FarCall, UMA:
		if n, err := strconv.ParseUint(variant, 10, 8); err == nil {
			v = int(n)
		}
	}
	if v < 0 {
		return Opcode{}, fmt.Errorf("%w %q: bad variant", ErrUnknownOpcode, s)
	}
	o.Variant = uint8(v) //nolint:gosec // bounded by the name tables or ParseUint
	return o, nil
}
