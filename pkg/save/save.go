// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package save serialises a whole machine state to an opaque,
// self-describing blob and restores it. It uses encoding/gob to encode
// the whole machine as a single struct.
package save

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/jwarwick/synacor/pkg/vm"
)

// image is the on-disk shape of a save file. It mirrors MachineState
// field for field; kept as a separate type (rather than encoding
// *vm.MachineState directly) so the wire format doesn't break if
// MachineState ever grows a field gob can't or shouldn't persist.
type image struct {
	Registers [8]uint16
	Memory    []uint16
	Stack     []uint16

	PC     uint16
	Halted bool

	Input []byte

	Mode      vm.Mode
	RunTarget uint16

	Breakpoints map[uint16]struct{}
	CallTrace   []vm.CallFrame
	Annotations map[uint16]string

	LastFault string
}

func toImage(st *vm.MachineState) *image {
	img := &image{
		Registers:   st.Registers,
		Memory:      make([]uint16, len(st.Memory)),
		PC:          st.PC,
		Halted:      st.Halted,
		Mode:        st.Mode,
		RunTarget:   st.RunTarget,
		Breakpoints: st.Breakpoints,
		Annotations: st.Annotations,
		LastFault:   st.LastFault,
	}
	copy(img.Memory, st.Memory[:])

	if st.Stack != nil {
		img.Stack = make([]uint16, len(st.Stack))
		copy(img.Stack, st.Stack)
	}
	if st.Input != nil {
		img.Input = make([]byte, len(st.Input))
		copy(img.Input, st.Input)
	}
	if st.CallTrace != nil {
		img.CallTrace = make([]vm.CallFrame, len(st.CallTrace))
		copy(img.CallTrace, st.CallTrace)
	}

	return img
}

func (img *image) toState() *vm.MachineState {
	st := vm.NewMachineState()
	st.Registers = img.Registers
	copy(st.Memory[:], img.Memory)
	st.Stack = img.Stack
	st.PC = img.PC
	st.Halted = img.Halted
	st.Input = img.Input
	st.Mode = img.Mode
	st.RunTarget = img.RunTarget
	st.CallTrace = img.CallTrace
	st.LastFault = img.LastFault

	if img.Breakpoints != nil {
		st.Breakpoints = img.Breakpoints
	}
	if img.Annotations != nil {
		st.Annotations = img.Annotations
	}

	return st
}

// Write serialises the entire machine state to path as a single gob
// stream.
func Write(path string, st *vm.MachineState) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(toImage(st)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Read restores a machine state previously written by Write. Per the
// load contract, the caller is responsible for forcing Step mode —
// Read itself preserves whatever mode was saved.
func Read(path string) (*vm.MachineState, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer file.Close()

	var img image
	if err := gob.NewDecoder(file).Decode(&img); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	return img.toState(), nil
}
