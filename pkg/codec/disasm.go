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

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders the full memory image as a line-per-instruction
// listing. Consecutive `out` instructions whose operand is a literal
// printable byte (excluding newline) collapse into a single
// out_literal_run entry; a literal newline becomes out_newline.
// Unknown opcode words render as unknown(word) and consume one word.
func Disassemble(mem []uint16, annotations map[uint16]string) []string {
	var lines []string

	addr := uint16(0)
	for {
		instr, err := Decode(mem, addr)
		if err != nil {
			lines = append(lines, formatLine(addr, fmt.Sprintf("unknown(%#04x)", mem[addr]), annotations))
			addr++
			if int(addr) >= MemSize {
				return lines
			}
			continue
		}

		if instr.Op == OpOut && len(instr.Operands) == 1 &&
			instr.Operands[0].Kind == Literal {
			if run, consumed := collectOutRun(mem, addr); consumed > 0 {
				lines = append(lines, formatLine(addr, run, annotations))
				addr += consumed
				if int(addr) >= MemSize {
					return lines
				}
				continue
			}
		}

		lines = append(lines, formatLine(addr, renderInstruction(instr), annotations))
		addr += instr.Length

		if int(addr) >= MemSize {
			return lines
		}
	}
}

// collectOutRun greedily consumes consecutive literal `out` instructions
// starting at addr. It returns the rendered entry (out_newline for a
// single newline byte, out_literal_run(...) for a run of printable
// bytes) and the number of words consumed. consumed == 0 means the
// instruction at addr is not a collapsible out.
func collectOutRun(mem []uint16, addr uint16) (string, uint16) {
	instr, err := Decode(mem, addr)
	if err != nil || instr.Op != OpOut || instr.Operands[0].Kind != Literal {
		return "", 0
	}

	b := byte(instr.Operands[0].Value % 256)

	if b == '\n' {
		return "out_newline", instr.Length
	}

	if !isPrintable(b) {
		return "", 0
	}

	var run []byte
	run = append(run, b)
	consumed := instr.Length
	cursor := addr + instr.Length

	for int(cursor) < MemSize {
		next, err := Decode(mem, cursor)
		if err != nil || next.Op != OpOut || next.Operands[0].Kind != Literal {
			break
		}

		nb := byte(next.Operands[0].Value % 256)
		if nb == '\n' || !isPrintable(nb) {
			break
		}

		run = append(run, nb)
		consumed += next.Length
		cursor += next.Length
	}

	return fmt.Sprintf("out_literal_run(%s)", strconv.Quote(string(run))), consumed
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}

// renderInstruction renders a single decoded instruction, without any
// out-run collapsing. call, jmp, jt, jf render their target operands
// in decimal, which is Operand's default String form.
func renderInstruction(instr Instruction) string {
	if len(instr.Operands) == 0 {
		return instr.Op.String()
	}

	parts := make([]string, 0, len(instr.Operands)+1)
	parts = append(parts, instr.Op.String())

	for _, operand := range instr.Operands {
		parts = append(parts, operand.String())
	}

	return strings.Join(parts, " ")
}

func formatLine(addr uint16, body string, annotations map[uint16]string) string {
	line := fmt.Sprintf("[%05d]  %s", addr, body)

	if annotations != nil {
		if note, ok := annotations[addr]; ok && note != "" {
			line += "\t\t\t\t# " + note
		}
	}

	return line
}
