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

// Package replay drives a [validation.Tracer] with instructions recorded in
// TOML scripts, as a VM would, and compares the outcome with the one the
// script expects. It backs the vtreplay command and is useful for reproducing
// rejected transactions outside of a node.
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/ava-labs/libevm/common"
	"github.com/ava-labs/libevm/common/hexutil"
	"github.com/ava-labs/libevm/ethdb"
	"github.com/holiman/uint256"
	"github.com/naoina/toml"

	"github.com/ava-labs/validationtracer/storage"
	"github.com/ava-labs/validationtracer/validation"
	"github.com/ava-labs/validationtracer/vm"
)

// A Script is a recorded validation run. Keys in the TOML encoding are the
// field names.
type Script struct {
	Name string

	UserAddress           common.Address
	PaymasterAddress      common.Address
	ComputationalGasLimit uint32
	TrustedSlots          []SlotEntry
	TrustedAddresses      []common.Address
	TrustedAddressSlots   []SlotEntry

	// Storage is written over any backing database before the run. Zero
	// values do not mask the backing database.
	Storage []StorageEntry
	Memory  []MemoryEntry
	Steps   []Step
	Expect  Expectation
}

// A SlotEntry names a single storage slot.
type SlotEntry struct {
	Address common.Address
	Key     hexutil.Big
}

// A StorageEntry is the value of a single storage slot.
type StorageEntry struct {
	Address common.Address
	Key     hexutil.Big
	Value   hexutil.Big
}

// A MemoryEntry is written to VM memory before the run.
type MemoryEntry struct {
	Page   uint32
	Offset uint32
	Data   hexutil.Bytes
}

// A Step is one instruction, optionally repeated. An empty Opcode is a Nop,
// or a normal far call if Call is set.
type Step struct {
	Opcode   string
	This     common.Address
	Sender   common.Address
	BasePage uint32
	Src0     hexutil.Big
	Src1     hexutil.Big
	Price    uint32
	// Hook is reported by the classifier for this instruction.
	Hook   string
	Call   *FarCall
	Repeat int
}

// A FarCall overrides a Step's operands with an encoded far-call ABI and
// destination.
type FarCall struct {
	Dest   common.Address
	Mode   string
	Page   uint32
	Start  uint32
	Length uint32
}

// An Expectation is the outcome a script is checked against. Empty and zero
// fields other than Violation and Stopped are not checked.
type Expectation struct {
	// Violation is the name of the expected rule kind, or empty for none.
	Violation string
	Stopped   bool
	Mode      string
	Executed  int
}

var tomlSettings = toml.Config{
	NormFieldName: func(_ reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(_ reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field %q is not defined in %s", field, rt.String())
	},
}

// Load decodes a TOML script.
func Load(r io.Reader) (*Script, error) {
	s := new(Script)
	if err := tomlSettings.NewDecoder(bufio.NewReader(r)).Decode(s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile decodes the TOML script at `path`, naming it after the file if the
// script has no Name.
func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

var errOverflow = errors.New("value overflows 256 bits")

func toU256(b *hexutil.Big) (*uint256.Int, error) {
	v, overflow := uint256.FromBig((*big.Int)(b))
	if overflow {
		return nil, fmt.Errorf("%w: %v", errOverflow, b)
	}
	return v, nil
}

func toSlots(entries []SlotEntry) ([]validation.Slot, error) {
	slots := make([]validation.Slot, len(entries))
	for i, e := range entries {
		k, err := toU256(&e.Key)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		slots[i] = validation.Slot{Address: e.Address, Key: *k}
	}
	return slots, nil
}

// Params returns the tracer parameters described by the script.
func (s *Script) Params() (validation.Params, error) {
	trusted, err := toSlots(s.TrustedSlots)
	if err != nil {
		return validation.Params{}, fmt.Errorf("trusted slots: %w", err)
	}
	indirect, err := toSlots(s.TrustedAddressSlots)
	if err != nil {
		return validation.Params{}, fmt.Errorf("trusted address slots: %w", err)
	}
	return validation.Params{
		UserAddress:           s.UserAddress,
		PaymasterAddress:      s.PaymasterAddress,
		TrustedSlots:          trusted,
		TrustedAddresses:      s.TrustedAddresses,
		TrustedAddressSlots:   indirect,
		ComputationalGasLimit: s.ComputationalGasLimit,
	}, nil
}

// Seed writes the script's storage to `w`.
func (s *Script) Seed(w ethdb.KeyValueWriter) error {
	for i, e := range s.Storage {
		k, err := toU256(&e.Key)
		if err != nil {
			return fmt.Errorf("storage %d key: %w", i, err)
		}
		v, err := toU256(&e.Value)
		if err != nil {
			return fmt.Errorf("storage %d value: %w", i, err)
		}
		if err := storage.Write(w, storage.NewKey(e.Address, k), v.Bytes32()); err != nil {
			return err
		}
	}
	return nil
}

// A compiledStep is a Step ready to be passed to the tracer.
type compiledStep struct {
	state  *vm.State
	instr  *vm.Instruction
	hook   validation.Hook
	repeat int
}

func (st *Step) compile() (*compiledStep, error) {
	name := st.Opcode
	switch {
	case name == "" && st.Call != nil:
		name = vm.FarCallOp(vm.NormalCall).String()
	case name == "":
		name = vm.Opcode{Kind: vm.Nop}.String()
	}
	op, err := vm.ParseOpcode(name)
	if err != nil {
		return nil, err
	}
	hook, err := validation.ParseHook(st.Hook)
	if err != nil {
		return nil, err
	}

	instr := &vm.Instruction{Opcode: op, ErgsPrice: st.Price}
	src0, err := toU256(&st.Src0)
	if err != nil {
		return nil, fmt.Errorf("src0: %w", err)
	}
	src1, err := toU256(&st.Src1)
	if err != nil {
		return nil, fmt.Errorf("src1: %w", err)
	}
	instr.Src0, instr.Src1 = *src0, *src1

	if c := st.Call; c != nil {
		mode := vm.UseHeap
		if c.Mode != "" {
			if mode, err = vm.ParseForwardPageType(c.Mode); err != nil {
				return nil, err
			}
		}
		abi := vm.FarCallABI{
			MemoryQuasiFatPointer: vm.FatPointer{
				Page:   vm.MemoryPage(c.Page),
				Start:  c.Start,
				Length: c.Length,
			},
			ForwardingMode: mode,
		}
		instr.Src0 = *abi.ToU256()
		instr.Src1 = *vm.AddressToU256(c.Dest)
	}

	return &compiledStep{
		state: &vm.State{
			Current: vm.CallFrame{
				ThisAddress:    st.This,
				MsgSender:      st.Sender,
				CodeAddress:    st.This,
				BaseMemoryPage: vm.MemoryPage(st.BasePage),
			},
		},
		instr:  instr,
		hook:   hook,
		repeat: max(st.Repeat, 1),
	}, nil
}

func (s *Script) compile() ([]*compiledStep, error) {
	steps := make([]*compiledStep, len(s.Steps))
	for i := range s.Steps {
		c, err := s.Steps[i].compile()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps[i] = c
	}
	if s.Expect.Violation != "" {
		if _, err := validation.ParseRuleKind(s.Expect.Violation); err != nil {
			return nil, fmt.Errorf("expectation: %w", err)
		}
	}
	if s.Expect.Mode != "" {
		if _, err := validation.ParseMode(s.Expect.Mode); err != nil {
			return nil, fmt.Errorf("expectation: %w", err)
		}
	}
	return steps, nil
}
