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

package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jwarwick/synacor/pkg/codec"
	"github.com/jwarwick/synacor/pkg/controller"
	"github.com/jwarwick/synacor/pkg/encoding"
)

var lastcmd []string

// parseAddr accepts the hex forms DecodeHex knows (0x####, x####) and
// falls back to DecodeInt's base-10 forms (#123, 123) for plain
// decimal addresses and immediates.
func parseAddr(s string) (uint16, error) {
	if addr, err := encoding.DecodeHex(s); err == nil {
		return addr, nil
	}
	v, err := encoding.DecodeInt(s)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func debugBreak(ctrl *controller.Controller, args []string) {
	const usg = "break [add|list|remove|clear] [0x####]"

	if len(args) == 0 {
		args = []string{"list"}
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		if len(args) != 1 {
			log.Println(usg)
			return
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			log.Println(err)
			return
		}
		if err := ctrl.AddBreakpoint(addr); err != nil {
			log.Println(err)
			return
		}
		fmt.Printf("Breakpoint added [%#04x]\n", addr)

	case "l", "ls", "list":
		bps, err := ctrl.ListBreakpoints()
		if err != nil {
			log.Println(err)
			return
		}
		for i, addr := range bps {
			fmt.Printf("#%d: %#04x\n", i, addr)
		}

	case "r", "rm", "remove":
		if len(args) != 1 {
			log.Println(usg)
			return
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			log.Println(err)
			return
		}
		if err := ctrl.RemoveBreakpoint(addr); err != nil {
			log.Println(err)
			return
		}
		fmt.Printf("Breakpoint removed [%#04x]\n", addr)

	case "clear":
		if err := ctrl.ClearBreakpoints(); err != nil {
			log.Println(err)
			return
		}
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(ctrl *controller.Controller, args []string) {
	const usg = "register [#0-7] [0x####]"

	if len(args) > 0 {
		if len(args) != 2 {
			log.Println(usg)
			return
		}

		idx, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil || idx > 7 {
			log.Println(usg)
			return
		}

		value, err := parseAddr(args[1])
		if err != nil {
			log.Println(err)
			return
		}

		if err := ctrl.SetRegister(uint8(idx), value); err != nil {
			log.Println(err)
			return
		}

		fmt.Printf("R%d: %#04x\n", idx, value)
		return
	}

	st, err := ctrl.GetState()
	if err != nil {
		log.Println(err)
		return
	}

	for i, v := range st.Registers {
		fmt.Printf("R%d: %#04x\t", i, v)
	}
	fmt.Println()
	fmt.Printf("PC: %#04x\tMode: %s\n", st.PC, st.Mode)
}

func debugMemory(ctrl *controller.Controller, args []string) {
	const usg = "memory [0x####] [#]"

	if len(args) == 0 || len(args) > 2 {
		log.Println(usg)
		return
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		log.Println(err)
		return
	}

	size := uint16(1)
	if len(args) == 2 {
		v, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			log.Println(err)
			return
		}
		size = uint16(v)
	}

	for i := addr; i < addr+size; i++ {
		value, note, err := ctrl.Peek(i)
		if err != nil {
			log.Println(err)
			return
		}
		if note != "" {
			fmt.Printf("[%#04x] %#04x\t# %s\n", i, value, note)
		} else {
			fmt.Printf("[%#04x] %#04x\n", i, value)
		}
	}
}

func debugSet(ctrl *controller.Controller, args []string) {
	const usg = "set [0x####] [0x####]"

	if len(args) != 2 {
		log.Println(usg)
		return
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		log.Println(err)
		return
	}

	value, err := parseAddr(args[1])
	if err != nil {
		log.Println(err)
		return
	}

	if err := ctrl.Poke(addr, value); err != nil {
		log.Println(err)
		return
	}

	fmt.Printf("[%#04x] %#04x\n", addr, value)
}

func debugAnnotate(ctrl *controller.Controller, args []string) {
	const usg = "annotate [0x####] [text...]"

	if len(args) < 2 {
		log.Println(usg)
		return
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		log.Println(err)
		return
	}

	if err := ctrl.Annotate(addr, strings.Join(args[1:], " ")); err != nil {
		log.Println(err)
	}
}

func debugDisasm(ctrl *controller.Controller, args []string) {
	st, err := ctrl.GetState()
	if err != nil {
		log.Println(err)
		return
	}

	addr := st.PC
	count := 8

	if len(args) > 0 {
		if a, err := parseAddr(args[0]); err == nil {
			addr = a
		}
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			count = n
		}
	}

	cursor := addr
	for i := 0; i < count; i++ {
		instr, err := codec.Decode(st.Memory[:], cursor)
		if err != nil {
			fmt.Printf("[%05d]  unknown(%#04x)\n", cursor, st.Memory[cursor])
			cursor++
			continue
		}

		marker := "  "
		if cursor == st.PC {
			marker = "->"
		}

		parts := []string{instr.Op.String()}
		for _, op := range instr.Operands {
			parts = append(parts, op.String())
		}
		fmt.Printf("%s[%05d]  %s\n", marker, cursor, strings.Join(parts, " "))

		cursor += instr.Length
	}
}

func debugREPL(ctrl *controller.Controller) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(dbg) ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = append([]string{}, args...)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(ctrl, args)

		case "r", "reg", "register", "registers":
			debugReg(ctrl, args)

		case "m", "mem", "memory":
			debugMemory(ctrl, args)

		case "set":
			debugSet(ctrl, args)

		case "a", "annotate":
			debugAnnotate(ctrl, args)

		case "d", "disasm", "list":
			debugDisasm(ctrl, args)

		case "s", "step":
			if err := ctrl.Step(); err != nil {
				log.Println(err)
			}

		case "n", "next":
			if err := ctrl.Next(); err != nil {
				log.Println(err)
			}

		case "u", "up":
			if err := ctrl.Up(); err != nil {
				log.Println(err)
			}

		case "c", "continue":
			if err := ctrl.Continue(); err != nil {
				log.Println(err)
			}
			return

		case "ret":
			if err := ctrl.Ret(); err != nil {
				log.Println(err)
			}
			return

		case "save":
			if len(args) != 1 {
				log.Println("save [path]")
				continue
			}
			if err := ctrl.Save(args[0]); err != nil {
				log.Println(err)
			}

		case "load":
			if len(args) != 1 {
				log.Println("load [path]")
				continue
			}
			if err := ctrl.Load(args[0]); err != nil {
				log.Println(err)
			}
			return

		case "q", "quit", "exit":
			shouldexit = true
			return

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}
