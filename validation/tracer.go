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

// Package validation implements a tracer that restricts what account code may
// do while it validates a transaction, before any fee is guaranteed. Without
// such restrictions an attacker could make nodes perform unbounded work for
// free.
//
// The [Tracer] is driven by the VM, which calls [Tracer.BeforeExecution] for
// every instruction and then checks [Tracer.ShouldStop] and
// [Tracer.Violation]. While the account validates, storage reads, far calls,
// context queries and total computation are checked against a fixed policy;
// the first broken rule is latched and later reported as the reason the
// transaction was rejected.
package validation

import (
	"errors"

	"github.com/ava-labs/libevm/common"
	"github.com/ava-labs/libevm/log"

	"github.com/ava-labs/validationtracer/storage"
	"github.com/ava-labs/validationtracer/system"
	"github.com/ava-labs/validationtracer/vm"
)

// A Tracer enforces validation rules for a single transaction. It is not safe
// for concurrent use and MUST NOT be reused across transactions.
type Tracer struct {
	storage    storage.Reader
	classifier HookClassifier
	log        log.Logger
	metrics    *tracerMetrics

	user, paymaster common.Address

	mode       Mode
	sets       *TrustSets
	gas        ComputationalGas
	violation  *ViolatedRule
	shouldStop bool

	// keccakInput receives far-call calldata bound for the keccak precompile.
	keccakInput [keccakMappingInputLen]byte
}

// New constructs a [Tracer] in [NoValidation] mode. The Reader is only ever
// read from.
func New(r storage.Reader, p Params, opts ...Option) *Tracer {
	c := newConfig(opts...)
	t := &Tracer{
		storage:    r,
		classifier: c.classifier,
		metrics:    c.metrics,
		user:       p.UserAddress,
		paymaster:  p.PaymasterAddress,
		mode:       NoValidation,
		sets:       NewTrustSets(p.TrustedSlots, p.TrustedAddresses, p.TrustedAddressSlots),
		gas:        ComputationalGas{Limit: p.ComputationalGasLimit},
	}
	t.log = c.logger.With("user", t.user, "paymaster", t.paymaster)
	return t
}

// Mode returns the current validation mode.
func (t *Tracer) Mode() Mode { return t.mode }

// ComputationalGas returns a copy of the computational-gas accounting.
func (t *Tracer) ComputationalGas() ComputationalGas { return t.gas }

// ShouldStop reports whether the bootloader signalled the end of the
// validation step. It does not reflect violations; see [Tracer.Violation].
func (t *Tracer) ShouldStop() bool { return t.shouldStop }

// Violation returns the first rule broken, or nil.
func (t *Tracer) Violation() *ViolatedRule { return t.violation }

// Halted reports whether the driver must stop executing validation code,
// either because the step ended or because a rule was broken.
func (t *Tracer) Halted() bool {
	return t.shouldStop || t.violation != nil
}

// Err returns [Tracer.Violation] as an error, or nil.
func (t *Tracer) Err() error {
	if t.violation == nil {
		return nil
	}
	return t.violation
}

// ValidationError returns the latched violation in the form surfaced to users,
// or nil.
func (t *Tracer) ValidationError() *ValidationError {
	if t.violation == nil {
		return nil
	}
	return Violated(t.violation)
}

// BeforeExecution MUST be called by the VM before executing every instruction.
// Rules are only checked during [UserTxValidation]; the mode transition
// signalled by the instruction, if any, takes effect afterwards.
func (t *Tracer) BeforeExecution(state *vm.State, instr *vm.Instruction, mem vm.Memory) {
	if t.mode == UserTxValidation {
		t.metrics.instructions.Inc(1)
		items, err := t.CheckUserRestrictions(state, instr, mem)
		t.processRoundResult(items, err)
	}
	t.onHook(t.classifier.Classify(state, instr, mem))
}

func (t *Tracer) processRoundResult(items NewTrustedItems, err error) {
	var rule *ViolatedRule
	if errors.As(err, &rule) {
		t.metrics.violation(rule.Kind)
		if t.violation != nil {
			t.log.Debug("Validation rule violated after earlier violation", "rule", rule, "latched", t.violation)
			return
		}
		t.violation = rule
		t.log.Debug("Validation rule violated", "rule", rule)
		return
	}
	if items.Empty() {
		return
	}
	t.metrics.trustedSlots.Inc(int64(len(items.Slots)))
	t.metrics.trustedAddresses.Inc(int64(len(items.Addresses)))
	t.sets.Merge(items)
}

func (t *Tracer) onHook(h Hook) {
	if t.mode != NoValidation && (h == AccountValidationEntered || h == PaymasterValidationEntered) {
		t.log.Error("Illegal validation mode transition", "mode", t.mode, "hook", h)
	}
	next, stop := transition(t.mode, h)
	if next != t.mode {
		t.log.Debug("Validation mode transition", "from", t.mode, "to", next, "hook", h)
		if t.mode == UserTxValidation {
			t.metrics.gasUsed.Update(int64(t.gas.Used))
			slots, addrs, addrSlots, aux := t.sets.Sizes()
			t.log.Debug("User validation left",
				"computationalGas", t.gas.Used,
				"trustedSlots", slots,
				"trustedAddresses", addrs,
				"trustedAddressSlots", addrSlots,
				"auxiliarySlots", aux,
			)
		}
		t.mode = next
	}
	if stop {
		t.log.Debug("Validation step ended", "mode", t.mode, "computationalGas", t.gas.Used)
		t.shouldStop = true
	}
}

// CheckUserRestrictions evaluates a single instruction against the rules. It
// first rejects if the computational budget was already exceeded, then charges
// the instruction's price, and finally applies the opcode-specific rule. A
// non-nil error is always a [*ViolatedRule]. It does not modify the trust sets
// nor latch the violation.
func (t *Tracer) CheckUserRestrictions(state *vm.State, instr *vm.Instruction, mem vm.Memory) (NewTrustedItems, error) {
	if t.gas.Exceeded() {
		return NewTrustedItems{}, exceededBudget(t.gas.Limit)
	}
	t.gas.Charge(ComputationalGasPrice(state, instr))

	op := instr.Opcode
	if op.IsFarCall() {
		return t.checkFarCall(state, instr, mem)
	}
	if c, ok := op.AsContext(); ok {
		switch c {
		case vm.Meta:
			return NewTrustedItems{}, disallowedContext()
		case vm.ErgsLeft:
			// Allowed; gas introspection is needed for gas-limited calls.
		}
		return NewTrustedItems{}, nil
	}
	if l, ok := op.AsLog(); ok && l == vm.StorageRead {
		return t.checkStorageRead(state, instr)
	}
	return NewTrustedItems{}, nil
}

func (t *Tracer) checkFarCall(state *vm.State, instr *vm.Instruction, mem vm.Memory) (NewTrustedItems, error) {
	dest := vm.AddressFromU256(&instr.Src1)
	abi := vm.FarCallABIFromU256(&instr.Src0)

	switch ptr := abi.MemoryQuasiFatPointer; {
	case dest == system.Keccak256PrecompileAddress && ptr.Length == keccakMappingInputLen:
		mem.ReadAt(abi.CalldataPage(state.Current.BaseMemoryPage), ptr.Start, t.keccakInput[:])
		if slot, ok := t.sets.SlotFromKeccakCall(t.keccakInput[:], t.user); ok {
			return NewTrustedItems{Slots: []common.Hash{slot}}, nil
		}

	case dest != t.user:
		if t.storage.GetValue(storage.CodeKey(dest)) == (common.Hash{}) {
			return NewTrustedItems{}, contractWithNoCode(dest)
		}
	}
	return NewTrustedItems{}, nil
}

func (t *Tracer) checkStorageRead(state *vm.State, instr *vm.Instruction) (NewTrustedItems, error) {
	key := &instr.Src0
	this := state.Current.ThisAddress

	if !t.isAllowedStorageRead(this, key, state.Current.MsgSender) {
		return NewTrustedItems{}, disallowedStorageSlot(this, key)
	}
	if !t.sets.IsAddressSlot(this, key) {
		return NewTrustedItems{}, nil
	}

	val := t.storage.GetValue(storage.NewKey(this, key))
	return NewTrustedItems{
		Addresses: []common.Address{common.BytesToAddress(val[:])},
	}, nil
}
