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

package codec

const (
	MemSize  = 1 << 15       // number of words in memory
	NumRegs  = 8              // number of registers
	MaxWord  = (1 << 15) - 1 // largest valid literal value
	WordMod  = MaxWord + 1   // modulus for arithmetic ops
	RegBase  = WordMod       // raw value of register 0
	RegLimit = RegBase + NumRegs
)

// Op is an opcode word, valid in the range 0..=21.
type Op uint16

const (
	OpHalt Op = 0
	OpSet  Op = 1
	OpPush Op = 2
	OpPop  Op = 3
	OpEq   Op = 4
	OpGt   Op = 5
	OpJmp  Op = 6
	OpJt   Op = 7
	OpJf   Op = 8
	OpAdd  Op = 9
	OpMult Op = 10
	OpMod  Op = 11
	OpAnd  Op = 12
	OpOr   Op = 13
	OpNot  Op = 14
	OpRmem Op = 15
	OpWmem Op = 16
	OpCall Op = 17
	OpRet  Op = 18
	OpOut  Op = 19
	OpIn   Op = 20
	OpNoop Op = 21
)

// Argc gives the number of operand words following each opcode word.
// Opcode values with no entry here are unknown.
var Argc = map[Op]int{
	OpHalt: 0,
	OpSet:  2,
	OpPush: 1,
	OpPop:  1,
	OpEq:   3,
	OpGt:   3,
	OpJmp:  1,
	OpJt:   2,
	OpJf:   2,
	OpAdd:  3,
	OpMult: 3,
	OpMod:  3,
	OpAnd:  3,
	OpOr:   3,
	OpNot:  2,
	OpRmem: 2,
	OpWmem: 2,
	OpCall: 1,
	OpRet:  0,
	OpOut:  1,
	OpIn:   1,
	OpNoop: 0,
}

// destRegisterIndex names, for opcodes that write a register, which
// operand position must decode as a Register (not a Literal). Decode
// rejects a non-Register value there rather than deferring the error
// to evaluation time.
var destRegisterIndex = map[Op]int{
	OpSet:  0,
	OpPop:  0,
	OpEq:   0,
	OpGt:   0,
	OpAdd:  0,
	OpMult: 0,
	OpMod:  0,
	OpAnd:  0,
	OpOr:   0,
	OpNot:  0,
	OpRmem: 0,
	OpIn:   0,
}

var opNames = map[Op]string{
	OpHalt: "halt",
	OpSet:  "set",
	OpPush: "push",
	OpPop:  "pop",
	OpEq:   "eq",
	OpGt:   "gt",
	OpJmp:  "jmp",
	OpJt:   "jt",
	OpJf:   "jf",
	OpAdd:  "add",
	OpMult: "mult",
	OpMod:  "mod",
	OpAnd:  "and",
	OpOr:   "or",
	OpNot:  "not",
	OpRmem: "rmem",
	OpWmem: "wmem",
	OpCall: "call",
	OpRet:  "ret",
	OpOut:  "out",
	OpIn:   "in",
	OpNoop: "noop",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether op is one of the 22 defined opcodes.
func (op Op) Valid() bool {
	_, ok := Argc[op]
	return ok
}
