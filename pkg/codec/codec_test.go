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

package codec_test

import (
	"testing"

	"github.com/jwarwick/synacor/pkg/codec"
)

func newMem(words ...uint16) []uint16 {
	mem := make([]uint16, codec.MemSize)
	copy(mem, words)
	return mem
}

func TestDecodeOperand(t *testing.T) {
	tests := []struct {
		Name  string
		Word  uint16
		Want  codec.Operand
		Error bool
	}{
		{"Literal Zero", 0, codec.Operand{Kind: codec.Literal, Value: 0}, false},
		{"Literal Max", 32767, codec.Operand{Kind: codec.Literal, Value: 32767}, false},
		{"Register Zero", 32768, codec.Operand{Kind: codec.Register, RegIndex: 0}, false},
		{"Register Seven", 32775, codec.Operand{Kind: codec.Register, RegIndex: 7}, false},
		{"Malformed", 32776, codec.Operand{}, true},
		{"Malformed Max", 65535, codec.Operand{}, true},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			have, err := codec.DecodeOperand(test.Word)

			if test.Error {
				if err == nil {
					t.Fatalf("want error, have nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if have != test.Want {
				t.Errorf("operand mismatch\nwant:%+v\nhave:%+v", test.Want, have)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("Tiny Program", func(t *testing.T) {
		// add r0, r1, 4; out r0
		mem := newMem(9, 32768, 32769, 4, 19, 32768)

		instr, err := codec.Decode(mem, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if instr.Op != codec.OpAdd {
			t.Errorf("op mismatch\nwant:%v\nhave:%v", codec.OpAdd, instr.Op)
		}

		if instr.Length != 4 {
			t.Errorf("length mismatch\nwant:4\nhave:%d", instr.Length)
		}

		wantOperands := []codec.Operand{
			{Kind: codec.Register, RegIndex: 0},
			{Kind: codec.Register, RegIndex: 1},
			{Kind: codec.Literal, Value: 4},
		}

		for i, want := range wantOperands {
			if instr.Operands[i] != want {
				t.Errorf("operand[%d] mismatch\nwant:%+v\nhave:%+v", i, want, instr.Operands[i])
			}
		}

		next, err := codec.Decode(mem, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if next.Op != codec.OpOut {
			t.Errorf("op mismatch\nwant:%v\nhave:%v", codec.OpOut, next.Op)
		}
	})

	t.Run("Tokeniser Round Trip", func(t *testing.T) {
		mem := newMem(21, 0)

		first, err := codec.Decode(mem, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Op != codec.OpNoop || first.Length != 1 {
			t.Errorf("want noop/1, have %v/%d", first.Op, first.Length)
		}

		second, err := codec.Decode(mem, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.Op != codec.OpHalt || second.Length != 1 {
			t.Errorf("want halt/1, have %v/%d", second.Op, second.Length)
		}
	})

	t.Run("Sample Three Instruction Stream", func(t *testing.T) {
		mem := newMem(19, 16, 21, 0)

		out, err := codec.Decode(mem, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Op != codec.OpOut || out.Operands[0].Value != 16 {
			t.Errorf("want out(16), have %v(%v)", out.Op, out.Operands[0])
		}

		noop, err := codec.Decode(mem, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if noop.Op != codec.OpNoop {
			t.Errorf("want noop, have %v", noop.Op)
		}

		halt, err := codec.Decode(mem, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if halt.Op != codec.OpHalt {
			t.Errorf("want halt, have %v", halt.Op)
		}
	})

	t.Run("Unknown Opcode", func(t *testing.T) {
		mem := newMem(22)

		if _, err := codec.Decode(mem, 0); err == nil {
			t.Fatalf("want error, have nil")
		}
	})

	t.Run("Malformed Operand", func(t *testing.T) {
		mem := newMem(uint16(codec.OpSet), 32768, 32776)

		if _, err := codec.Decode(mem, 0); err == nil {
			t.Fatalf("want error, have nil")
		}
	})

	t.Run("Literal Destination Rejected", func(t *testing.T) {
		// set 5, 10 — destination must be a register, not a literal.
		mem := newMem(uint16(codec.OpSet), 5, 10)

		if _, err := codec.Decode(mem, 0); err == nil {
			t.Fatalf("want error, have nil")
		}
	})
}
