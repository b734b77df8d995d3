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

package vm

import "github.com/jwarwick/synacor/pkg/codec"

// resolve returns the value a decoded operand refers to: the literal
// itself, or the current contents of the register it selects.
func resolve(st *MachineState, op codec.Operand) uint16 {
	if op.Kind == codec.Register {
		return st.Registers[op.RegIndex]
	}
	return op.Value
}

// Evaluate executes a single decoded instruction against st, mutating
// it in place (memory is a flat 32768-word array; cloning it every
// step would force an allocation on every write). It returns the PC
// the controller should resume at and a scheduling hint. st.PC is not
// advanced by Evaluate itself — the caller applies nextPC.
func Evaluate(instr codec.Instruction, st *MachineState) (nextPC uint16, hint ScheduleHint, err error) {
	pc := instr.Addr
	nextPC = pc + instr.Length
	hint = Continue

	ops := instr.Operands

	switch instr.Op {
	case codec.OpHalt:
		st.Halted = true
		hint = Idle

	case codec.OpSet:
		st.Registers[ops[0].RegIndex] = resolve(st, ops[1])

	case codec.OpPush:
		st.Push(resolve(st, ops[0]))

	case codec.OpPop:
		v, perr := st.Pop()
		if perr != nil {
			return pc, Idle, perr
		}
		st.Registers[ops[0].RegIndex] = v

	case codec.OpEq:
		if resolve(st, ops[1]) == resolve(st, ops[2]) {
			st.Registers[ops[0].RegIndex] = 1
		} else {
			st.Registers[ops[0].RegIndex] = 0
		}

	case codec.OpGt:
		if resolve(st, ops[1]) > resolve(st, ops[2]) {
			st.Registers[ops[0].RegIndex] = 1
		} else {
			st.Registers[ops[0].RegIndex] = 0
		}

	case codec.OpJmp:
		nextPC = resolve(st, ops[0])

	case codec.OpJt:
		if resolve(st, ops[0]) != 0 {
			nextPC = resolve(st, ops[1])
		}

	case codec.OpJf:
		if resolve(st, ops[0]) == 0 {
			nextPC = resolve(st, ops[1])
		}

	case codec.OpAdd:
		st.Registers[ops[0].RegIndex] = (resolve(st, ops[1]) + resolve(st, ops[2])) % codec.WordMod

	case codec.OpMult:
		a := uint32(resolve(st, ops[1]))
		b := uint32(resolve(st, ops[2]))
		st.Registers[ops[0].RegIndex] = uint16((a * b) % codec.WordMod)

	case codec.OpMod:
		divisor := resolve(st, ops[2])
		if divisor == 0 {
			return pc, Idle, &DivisionByZeroError{Addr: pc}
		}
		st.Registers[ops[0].RegIndex] = resolve(st, ops[1]) % divisor

	case codec.OpAnd:
		st.Registers[ops[0].RegIndex] = resolve(st, ops[1]) & resolve(st, ops[2])

	case codec.OpOr:
		st.Registers[ops[0].RegIndex] = resolve(st, ops[1]) | resolve(st, ops[2])

	case codec.OpNot:
		st.Registers[ops[0].RegIndex] = (^resolve(st, ops[1])) & codec.MaxWord

	case codec.OpRmem:
		addr := resolve(st, ops[1])
		if int(addr) >= len(st.Memory) {
			return pc, Idle, &AddressOutOfRangeError{Addr: addr}
		}
		st.Registers[ops[0].RegIndex] = st.Memory[addr]

	case codec.OpWmem:
		addr := resolve(st, ops[0])
		if int(addr) >= len(st.Memory) {
			return pc, Idle, &AddressOutOfRangeError{Addr: addr}
		}
		st.Memory[addr] = resolve(st, ops[1])

	case codec.OpCall:
		target := resolve(st, ops[0])
		st.Push(nextPC)
		st.CallTrace = append(st.CallTrace, CallFrame{
			Addr:       pc,
			Annotation: st.Annotation(pc),
		})
		nextPC = target

	case codec.OpRet:
		if len(st.Stack) == 0 {
			st.Halted = true
			return pc, Idle, nil
		}
		v, perr := st.Pop()
		if perr != nil {
			return pc, Idle, perr
		}
		if len(st.CallTrace) > 0 {
			st.CallTrace = st.CallTrace[:len(st.CallTrace)-1]
		}
		nextPC = v

	case codec.OpOut:
		// The output byte itself is delivered to the terminal
		// collaborator by the controller, which owns the channel and
		// computes it with OutByte; Evaluate performs no I/O.

	case codec.OpIn:
		if len(st.Input) == 0 {
			return pc, WaitForInput, nil
		}
		b := st.Input[0]
		st.Input = st.Input[1:]
		st.Registers[ops[0].RegIndex] = uint16(b)

	case codec.OpNoop:
		// nothing to do

	default:
		return pc, Idle, &codec.UnknownOpcodeError{Addr: pc, Word: uint16(instr.Op)}
	}

	return nextPC, hint, nil
}

// OutByte returns the byte an `out` instruction would emit. Callers
// (the controller) use this after Evaluate to drive the terminal
// collaborator, since Evaluate itself performs no I/O.
func OutByte(instr codec.Instruction, st *MachineState) byte {
	return byte(resolve(st, instr.Operands[0]) % 256)
}
