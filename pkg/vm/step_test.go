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

package vm_test

import (
	"testing"

	"github.com/jwarwick/synacor/pkg/codec"
	"github.com/jwarwick/synacor/pkg/vm"
)

func newState(words ...uint16) *vm.MachineState {
	st := vm.NewMachineState()
	for i, w := range words {
		st.Memory[i] = w
	}
	return st
}

func step(t *testing.T, st *vm.MachineState, addr uint16) (uint16, vm.ScheduleHint) {
	t.Helper()
	instr, err := codec.Decode(st.Memory[:], addr)
	if err != nil {
		t.Fatalf("decode at %#04x: %v", addr, err)
	}
	next, hint, err := vm.Evaluate(instr, st)
	if err != nil {
		t.Fatalf("evaluate at %#04x: %v", addr, err)
	}
	return next, hint
}

func TestEvaluateArithmetic(t *testing.T) {
	// set r0, 5; set r1, 4; add r2, r0, r1; halt
	st := newState(
		uint16(codec.OpSet), 32768, 5,
		uint16(codec.OpSet), 32769, 4,
		uint16(codec.OpAdd), 32770, 32768, 32769,
		uint16(codec.OpHalt),
	)

	pc := uint16(0)
	pc, _ = step(t, st, pc)
	pc, _ = step(t, st, pc)
	pc, _ = step(t, st, pc)

	if st.Registers[2] != 9 {
		t.Errorf("r2 = %d, want 9", st.Registers[2])
	}

	_, hint := step(t, st, pc)
	if hint != vm.Idle || !st.Halted {
		t.Errorf("want halted/idle, have halted=%v hint=%v", st.Halted, hint)
	}
}

func TestEvaluateAddWraps(t *testing.T) {
	st := newState(uint16(codec.OpAdd), 32768, 32767, 32767)
	step(t, st, 0)
	if st.Registers[0] != 32766 {
		t.Errorf("r0 = %d, want 32766 (32767+32767 mod 32768)", st.Registers[0])
	}
}

func TestEvaluateMultWraps(t *testing.T) {
	st := newState(uint16(codec.OpMult), 32768, 30000, 30000)
	step(t, st, 0)
	want := uint16((uint32(30000) * uint32(30000)) % codec.WordMod)
	if st.Registers[0] != want {
		t.Errorf("r0 = %d, want %d", st.Registers[0], want)
	}
}

func TestEvaluateModByZero(t *testing.T) {
	st := newState(uint16(codec.OpMod), 32768, 5, 0)
	instr, err := codec.Decode(st.Memory[:], 0)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	_, _, err = vm.Evaluate(instr, st)
	if err == nil {
		t.Fatalf("want division-by-zero error, have nil")
	}
	if _, ok := err.(*vm.DivisionByZeroError); !ok {
		t.Errorf("want *DivisionByZeroError, have %T", err)
	}
}

func TestEvaluateNot(t *testing.T) {
	st := newState(uint16(codec.OpNot), 32768, 0)
	step(t, st, 0)
	if st.Registers[0] != codec.MaxWord {
		t.Errorf("not(0) = %d, want %d", st.Registers[0], codec.MaxWord)
	}
}

func TestEvaluateJumps(t *testing.T) {
	// jt r0, 10: falls through with r0==0, jumps to 10 with r0==1
	st := newState(uint16(codec.OpJt), 32768, 10)
	st.Registers[0] = 0
	next, _ := step(t, st, 0)
	if next != 3 {
		t.Errorf("jt with false condition: next = %d, want 3", next)
	}

	st.Registers[0] = 1
	next, _ = step(t, st, 0)
	if next != 10 {
		t.Errorf("jt with true condition: next = %d, want 10", next)
	}
}

func TestEvaluatePushPop(t *testing.T) {
	st := newState(uint16(codec.OpPush), 42, uint16(codec.OpPop), 32768)
	pc, _ := step(t, st, 0)
	if len(st.Stack) != 1 || st.Stack[0] != 42 {
		t.Fatalf("stack = %v, want [42]", st.Stack)
	}

	step(t, st, pc)
	if st.Registers[0] != 42 {
		t.Errorf("r0 = %d, want 42", st.Registers[0])
	}
	if len(st.Stack) != 0 {
		t.Errorf("stack not drained: %v", st.Stack)
	}
}

func TestEvaluatePopUnderflow(t *testing.T) {
	st := newState(uint16(codec.OpPop), 32768)
	instr, err := codec.Decode(st.Memory[:], 0)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	_, _, err = vm.Evaluate(instr, st)
	if _, ok := err.(*vm.StackUnderflowError); !ok {
		t.Errorf("want *StackUnderflowError, have %v", err)
	}
}

func TestEvaluateCallRet(t *testing.T) {
	// call 8; halt; ... ; [8] ret
	st := newState(
		uint16(codec.OpCall), 8,
		uint16(codec.OpHalt),
	)
	st.Memory[8] = uint16(codec.OpRet)

	next, _ := step(t, st, 0)
	if next != 8 {
		t.Errorf("call target = %d, want 8", next)
	}
	if len(st.Stack) != 1 || st.Stack[0] != 2 {
		t.Errorf("return address on stack = %v, want [2]", st.Stack)
	}
	if len(st.CallTrace) != 1 || st.CallTrace[0].Addr != 0 {
		t.Errorf("call trace = %v, want one frame at addr 0", st.CallTrace)
	}

	next, _ = step(t, st, next)
	if next != 2 {
		t.Errorf("ret target = %d, want 2", next)
	}
	if len(st.CallTrace) != 0 {
		t.Errorf("call trace not popped: %v", st.CallTrace)
	}
}

func TestEvaluateRetOnEmptyStackHalts(t *testing.T) {
	st := newState(uint16(codec.OpRet))
	step(t, st, 0)
	if !st.Halted {
		t.Errorf("ret on empty stack should halt")
	}
}

func TestEvaluateInWaitsForInput(t *testing.T) {
	st := newState(uint16(codec.OpIn), 32768)
	instr, err := codec.Decode(st.Memory[:], 0)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	_, hint, err := vm.Evaluate(instr, st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hint != vm.WaitForInput {
		t.Errorf("hint = %v, want WaitForInput", hint)
	}

	st.Input = []byte("A")
	next, hint, err := vm.Evaluate(instr, st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hint != vm.Continue {
		t.Errorf("hint = %v, want Continue", hint)
	}
	if next != 2 {
		t.Errorf("next = %d, want 2", next)
	}
	if st.Registers[0] != 'A' {
		t.Errorf("r0 = %d, want 'A'", st.Registers[0])
	}
	if len(st.Input) != 0 {
		t.Errorf("input not consumed: %v", st.Input)
	}
}

func TestEvaluateOutByte(t *testing.T) {
	st := newState(uint16(codec.OpOut), 65)
	instr, err := codec.Decode(st.Memory[:], 0)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if got := vm.OutByte(instr, st); got != 'A' {
		t.Errorf("OutByte = %q, want 'A'", got)
	}
}

func TestEvaluateRmemWmem(t *testing.T) {
	st := newState(
		uint16(codec.OpWmem), 100, 7,
		uint16(codec.OpRmem), 32768, 100,
	)
	pc, _ := step(t, st, 0)
	if st.Memory[100] != 7 {
		t.Errorf("mem[100] = %d, want 7", st.Memory[100])
	}

	step(t, st, pc)
	if st.Registers[0] != 7 {
		t.Errorf("r0 = %d, want 7", st.Registers[0])
	}
}

func TestEvaluateRmemOutOfRangeRegister(t *testing.T) {
	// rmem r0, r1 with r1 holding a corrupted, past-memory-end address.
	st := newState(uint16(codec.OpRmem), 32768, 32769)
	st.Registers[1] = 40000

	instr, err := codec.Decode(st.Memory[:], 0)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	_, _, err = vm.Evaluate(instr, st)
	if err == nil {
		t.Fatalf("want *AddressOutOfRangeError, have nil")
	}
	oor, ok := err.(*vm.AddressOutOfRangeError)
	if !ok {
		t.Fatalf("want *AddressOutOfRangeError, have %T", err)
	}
	if oor.Addr != 40000 {
		t.Errorf("Addr = %d, want 40000", oor.Addr)
	}
}

func TestEvaluateWmemOutOfRangeRegister(t *testing.T) {
	// wmem r0, 1 with r0 holding a corrupted, past-memory-end address.
	st := newState(uint16(codec.OpWmem), 32768, 1)
	st.Registers[0] = 50000

	instr, err := codec.Decode(st.Memory[:], 0)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	_, _, err = vm.Evaluate(instr, st)
	if _, ok := err.(*vm.AddressOutOfRangeError); !ok {
		t.Errorf("want *AddressOutOfRangeError, have %v", err)
	}
}

func TestEvaluateComparisons(t *testing.T) {
	cases := []struct {
		name string
		op   codec.Op
		a, b uint16
		want uint16
	}{
		{"eq true", codec.OpEq, 7, 7, 1},
		{"eq false", codec.OpEq, 7, 8, 0},
		{"gt true", codec.OpGt, 9, 3, 1},
		{"gt false", codec.OpGt, 3, 9, 0},
		{"gt equal", codec.OpGt, 5, 5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newState(uint16(tc.op), 32768, tc.a, tc.b)
			step(t, st, 0)
			if st.Registers[0] != tc.want {
				t.Errorf("r0 = %d, want %d", st.Registers[0], tc.want)
			}
		})
	}
}

func TestEvaluateBitwiseAndOr(t *testing.T) {
	st := newState(uint16(codec.OpAnd), 32768, 0x7A, 0x3C)
	step(t, st, 0)
	if st.Registers[0] != 0x7A&0x3C {
		t.Errorf("and = %#04x, want %#04x", st.Registers[0], 0x7A&0x3C)
	}

	st = newState(uint16(codec.OpOr), 32768, 0x7A, 0x3C)
	step(t, st, 0)
	if st.Registers[0] != 0x7A|0x3C {
		t.Errorf("or = %#04x, want %#04x", st.Registers[0], 0x7A|0x3C)
	}
}

// TestEvaluateDecryptHelperIdiom runs the two-instruction decrypt idiom
// r2 = ~(r0 & r1); r0 = (r0 | r1) & r2 through the interpreter for
// (r0, r1) = (12345, 6789), matching the classic AND/NOT/OR encoding of
// XOR over 15-bit words.
func TestEvaluateDecryptHelperIdiom(t *testing.T) {
	st := newState(
		uint16(codec.OpAnd), 32770, 32768, 32769, // r2 = r0 & r1
		uint16(codec.OpNot), 32770, 32770, // r2 = ~r2
		uint16(codec.OpOr), 32771, 32768, 32769, // r3 = r0 | r1
		uint16(codec.OpAnd), 32768, 32771, 32770, // r0 = r3 & r2
	)
	st.Registers[0] = 12345
	st.Registers[1] = 6789

	pc := uint16(0)
	pc, _ = step(t, st, pc)
	pc, _ = step(t, st, pc)
	pc, _ = step(t, st, pc)
	step(t, st, pc)

	const want = 10940 // (12345|6789) & ^(12345&6789), masked to 15 bits
	if st.Registers[0] != want {
		t.Errorf("r0 = %d, want %d", st.Registers[0], want)
	}
}

// teleportRecurrence implements the auxiliary function A(x, y) with
// state parameter k exactly as defined by the recurrence A(0, y) =
// y+1 mod 32768; A(x, 0) = A(x-1, k); A(x, y) = A(x-1, A(x, y-1)). It
// exists only to check the documented checkpoints below; solving for
// an unknown k from a target A(4,1,k) is the out-of-scope puzzle
// search, not this.
func teleportRecurrence(x, y, k int) int {
	memo := make(map[[2]int]int)
	var a func(x, y int) int
	a = func(x, y int) int {
		if x == 0 {
			return (y + 1) % 32768
		}
		key := [2]int{x, y}
		if v, ok := memo[key]; ok {
			return v
		}
		var v int
		if y == 0 {
			v = a(x-1, k)
		} else {
			v = a(x-1, a(x, y-1))
		}
		memo[key] = v
		return v
	}
	return a(x, y)
}

func TestTeleportRecurrenceCheckpoints(t *testing.T) {
	cases := []struct {
		x, y, k, want int
	}{
		{0, 0, 1, 1},
		{0, 4, 1, 5},
		{1, 1, 1, 3},
		{1, 4, 1, 6},
		{2, 0, 1, 3},
		{2, 1, 1, 5},
		{2, 2, 1, 7},
		{2, 3, 1, 9},
		{4, 0, 1, 13},
		{4, 1, 1, 32765},
		{0, 0, 0, 1},
		{1, 0, 2, 3},
		{1, 4, 2, 7},
		{2, 1, 2, 8},
	}

	for _, tc := range cases {
		got := teleportRecurrence(tc.x, tc.y, tc.k)
		if got != tc.want {
			t.Errorf("A(%d,%d,%d) = %d, want %d", tc.x, tc.y, tc.k, got, tc.want)
		}
	}
}
