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

package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jwarwick/synacor/pkg/codec"
	"github.com/jwarwick/synacor/pkg/save"
	"github.com/jwarwick/synacor/pkg/vm"
)

// queueDepth bounds how many commands a caller may have in flight
// before submit blocks; it is not a correctness knob, just headroom so
// a burst of peek/poke calls from a REPL doesn't stall on the channel.
const queueDepth = 16

// Controller is the single owner of a machine state. All access to the
// state happens on its event-loop goroutine; callers interact only
// through the command methods in commands.go.
type Controller struct {
	state  *vm.MachineState
	output io.Writer

	instrCount uint64
	breakHits  uint64

	cmds chan *command
}

// New returns a controller owning st and writing `out` bytes to
// output. output may be nil to discard program output (useful in
// tests).
func New(st *vm.MachineState, output io.Writer) *Controller {
	return &Controller{
		state:  st,
		output: output,
		cmds:   make(chan *command, queueDepth),
	}
}

// Run is the controller's event loop. It processes commands and, while
// not paused in Step mode and not halted, advances the machine one
// instruction per tick. Run returns when a shutdown command arrives or
// ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-c.cmds:
			if done := c.dispatch(cmd); done {
				return nil
			}
			continue
		default:
		}

		if c.state.Halted || c.state.Mode == vm.ModeStep || c.awaitingInput() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cmd := <-c.cmds:
				if done := c.dispatch(cmd); done {
					return nil
				}
			}
			continue
		}

		c.execOne()
	}
}

// awaitingInput reports whether the instruction at PC is `in` with an
// empty input buffer — a suspension point the loop must park on
// instead of busy-spinning.
func (c *Controller) awaitingInput() bool {
	if c.state.Halted {
		return false
	}
	instr, err := codec.Decode(c.state.Memory[:], c.state.PC)
	if err != nil {
		return false
	}
	return instr.Op == codec.OpIn && len(c.state.Input) == 0
}

// execOne applies pre-dispatch mode policy and, if nothing paused
// execution, runs exactly one instruction.
func (c *Controller) execOne() {
	if c.state.Halted {
		return
	}

	pc := c.state.PC
	instr, err := codec.Decode(c.state.Memory[:], pc)
	if err != nil {
		c.fault(err)
		return
	}

	switch c.state.Mode {
	case vm.ModeRun:
		if c.state.HasBreakpoint(pc) {
			c.breakHits++
			c.state.Mode = vm.ModeStep
			c.printBreak(instr)
			return
		}
	case vm.ModeRunTo:
		if pc == c.state.RunTarget {
			c.state.Mode = vm.ModeStep
			return
		}
	case vm.ModeRet:
		if instr.Op == codec.OpRet {
			c.state.Mode = vm.ModeStep
			return
		}
	}

	if instr.Op == codec.OpIn && len(c.state.Input) == 0 {
		return
	}

	next, _, err := vm.Evaluate(instr, c.state)
	if err != nil {
		c.fault(err)
		return
	}
	c.instrCount++

	if instr.Op == codec.OpOut && c.output != nil {
		c.output.Write([]byte{vm.OutByte(instr, c.state)})
	}

	c.state.PC = next
}

func (c *Controller) fault(err error) {
	c.state.Halted = true
	c.state.LastFault = err.Error()

	if c.output != nil {
		fmt.Fprintf(c.output, "\nProgram halted at [%05d]: %s\n", c.state.PC, err)
	}
}

// printBreak writes the "stopped here" diagnostic a breakpoint hit
// produces before the controller hands control back to Step mode.
func (c *Controller) printBreak(instr codec.Instruction) {
	if c.output == nil {
		return
	}

	parts := []string{instr.Op.String()}
	for _, op := range instr.Operands {
		parts = append(parts, op.String())
	}

	fmt.Fprintf(c.output, "\nProgram stopped\n[%05d]  %s\n", instr.Addr, strings.Join(parts, " "))
}

// doNext implements `next`: stepping over a call rather than into it.
func (c *Controller) doNext() {
	if c.state.Halted {
		return
	}
	instr, err := codec.Decode(c.state.Memory[:], c.state.PC)
	if err != nil {
		c.fault(err)
		return
	}
	if instr.Op == codec.OpCall {
		c.state.RunTarget = c.state.PC + instr.Length
		c.state.Mode = vm.ModeRunTo
		return
	}
	c.execOne()
}

// doUp implements `up`: run until the current call frame returns,
// using the call trace rather than the data stack so it still works if
// a program has manually pushed extra words.
func (c *Controller) doUp() {
	if len(c.state.CallTrace) == 0 {
		return
	}
	frame := c.state.CallTrace[len(c.state.CallTrace)-1]
	instr, err := codec.Decode(c.state.Memory[:], frame.Addr)
	if err != nil {
		return
	}
	c.state.RunTarget = frame.Addr + instr.Length
	c.state.Mode = vm.ModeRunTo
}

// dispatch executes one queued command and replies. It returns true
// when the controller should stop running.
func (c *Controller) dispatch(cmd *command) bool {
	switch cmd.kind {
	case cmdShutdown:
		cmd.reply <- Result{}
		return true

	case cmdRun, cmdContinue:
		// Execute the instruction under a breakpoint the machine is
		// paused on, so resuming does not re-hit it straight away.
		if c.state.Mode == vm.ModeStep && c.state.HasBreakpoint(c.state.PC) {
			c.execOne()
		}
		c.state.Mode = vm.ModeRun
		cmd.reply <- Result{}

	case cmdStep:
		c.state.Mode = vm.ModeStep
		c.execOne()
		cmd.reply <- Result{}

	case cmdNext:
		c.doNext()
		cmd.reply <- Result{}

	case cmdUp:
		c.doUp()
		cmd.reply <- Result{}

	case cmdRet:
		c.state.Mode = vm.ModeRet
		cmd.reply <- Result{}

	case cmdBreakNow:
		c.state.Mode = vm.ModeStep
		cmd.reply <- Result{}

	case cmdAddBreak:
		c.state.SetBreakpoint(cmd.addr)
		cmd.reply <- Result{}

	case cmdRemoveBreak:
		c.state.RemoveBreakpoint(cmd.addr)
		cmd.reply <- Result{}

	case cmdClearBreak:
		c.state.ClearBreakpoints()
		cmd.reply <- Result{}

	case cmdListBreak:
		addrs := make([]uint16, 0, len(c.state.Breakpoints))
		for addr := range c.state.Breakpoints {
			addrs = append(addrs, addr)
		}
		cmd.reply <- Result{Breakpoints: addrs}

	case cmdPeek:
		cmd.reply <- Result{
			Value:      c.state.Memory[cmd.addr],
			Annotation: c.state.Annotation(cmd.addr),
		}

	case cmdPoke:
		c.state.Memory[cmd.addr] = cmd.value
		cmd.reply <- Result{}

	case cmdSetRegister:
		if int(cmd.reg) < len(c.state.Registers) {
			c.state.Registers[cmd.reg] = cmd.value
		}
		cmd.reply <- Result{}

	case cmdGetState:
		cmd.reply <- Result{State: c.state.Clone()}

	case cmdSetState:
		*c.state = *cmd.state.Clone()
		c.state.Mode = vm.ModeStep
		cmd.reply <- Result{}

	case cmdEvaluate:
		pc := c.state.PC
		_, _, err := vm.Evaluate(cmd.instr, c.state)
		c.state.PC = pc
		cmd.reply <- Result{Err: err}

	case cmdAnnotate:
		c.state.Annotate(cmd.addr, cmd.text)
		cmd.reply <- Result{}

	case cmdInput:
		c.state.Input = append(c.state.Input, []byte(cmd.text+"\n")...)
		cmd.reply <- Result{}

	case cmdSave:
		err := save.Write(cmd.path, c.state)
		cmd.reply <- Result{Err: err}

	case cmdLoad:
		loaded, err := save.Read(cmd.path)
		if err == nil {
			*c.state = *loaded
			c.state.Mode = vm.ModeStep
		}
		cmd.reply <- Result{Err: err}

	case cmdStats:
		cmd.reply <- Result{Stats: Stats{
			InstructionsExecuted: c.instrCount,
			BreakpointHits:       c.breakHits,
			PC:                   c.state.PC,
			Mode:                 c.state.Mode,
			Halted:               c.state.Halted,
		}}

	default:
		cmd.reply <- Result{Err: fmt.Errorf("controller: unknown command %d", cmd.kind)}
	}

	return false
}
