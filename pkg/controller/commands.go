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
	"github.com/jwarwick/synacor/pkg/codec"
	"github.com/jwarwick/synacor/pkg/vm"
)

// submit enqueues cmd and blocks for its reply. Commands from a single
// caller are delivered to the loop in submission order, giving the
// ordering guarantee the command surface promises.
func (c *Controller) submit(cmd *command) Result {
	cmd.reply = make(chan Result, 1)
	c.cmds <- cmd
	return <-cmd.reply
}

// SetRun switches the machine into Run mode: it executes continuously
// until a breakpoint, run-to target, ret-mode match, halt, or a
// blocking `in` is reached.
func (c *Controller) SetRun() error {
	return c.submit(&command{kind: cmdRun}).Err
}

// Continue is an alias for SetRun, matching the `continue` command
// name in the command surface.
func (c *Controller) Continue() error {
	return c.submit(&command{kind: cmdContinue}).Err
}

// Step executes exactly one instruction, regardless of mode, and
// leaves the machine in Step mode.
func (c *Controller) Step() error {
	return c.submit(&command{kind: cmdStep}).Err
}

// Next steps over a `call` instruction rather than into it.
func (c *Controller) Next() error {
	return c.submit(&command{kind: cmdNext}).Err
}

// Up runs until the current call frame returns to its caller.
func (c *Controller) Up() error {
	return c.submit(&command{kind: cmdUp}).Err
}

// Ret runs until the next `ret` is about to execute, then pauses
// without popping the stack.
func (c *Controller) Ret() error {
	return c.submit(&command{kind: cmdRet}).Err
}

// Break pauses a running machine at its next tick, the same way an
// interrupt from the terminal front-end would.
func (c *Controller) Break() error {
	return c.submit(&command{kind: cmdBreakNow}).Err
}

// AddBreakpoint arms a pause at addr. Breakpoints pause, they do not
// remove themselves; continuing re-arms the same address.
func (c *Controller) AddBreakpoint(addr uint16) error {
	return c.submit(&command{kind: cmdAddBreak, addr: addr}).Err
}

func (c *Controller) RemoveBreakpoint(addr uint16) error {
	return c.submit(&command{kind: cmdRemoveBreak, addr: addr}).Err
}

func (c *Controller) ClearBreakpoints() error {
	return c.submit(&command{kind: cmdClearBreak}).Err
}

func (c *Controller) ListBreakpoints() ([]uint16, error) {
	res := c.submit(&command{kind: cmdListBreak})
	return res.Breakpoints, res.Err
}

// Peek returns the word at addr and any annotation attached to it.
func (c *Controller) Peek(addr uint16) (uint16, string, error) {
	res := c.submit(&command{kind: cmdPeek, addr: addr})
	return res.Value, res.Annotation, res.Err
}

// Poke overwrites the word at addr.
func (c *Controller) Poke(addr, value uint16) error {
	return c.submit(&command{kind: cmdPoke, addr: addr, value: value}).Err
}

// SetRegister overwrites register reg (0..7).
func (c *Controller) SetRegister(reg uint8, value uint16) error {
	return c.submit(&command{kind: cmdSetRegister, reg: reg, value: value}).Err
}

// GetState returns a deep copy of the current machine state, safe for
// the caller to inspect without racing the event loop.
func (c *Controller) GetState() (*vm.MachineState, error) {
	res := c.submit(&command{kind: cmdGetState})
	return res.State, res.Err
}

// SetState replaces the whole machine state wholesale and forces
// Step mode, matching the `load` contract.
func (c *Controller) SetState(st *vm.MachineState) error {
	return c.submit(&command{kind: cmdSetState, state: st}).Err
}

// Evaluate runs instr against the current state without moving PC —
// intended for patching experiments, not normal execution.
func (c *Controller) Evaluate(instr codec.Instruction) error {
	return c.submit(&command{kind: cmdEvaluate, instr: instr}).Err
}

// Annotate attaches a human-readable note to addr.
func (c *Controller) Annotate(addr uint16, text string) error {
	return c.submit(&command{kind: cmdAnnotate, addr: addr, text: text}).Err
}

// Input appends line to the input buffer with a trailing newline. If
// the machine is parked on `in`, this unblocks it.
func (c *Controller) Input(line string) error {
	return c.submit(&command{kind: cmdInput, text: line}).Err
}

// Save serialises the entire machine state to path.
func (c *Controller) Save(path string) error {
	return c.submit(&command{kind: cmdSave, path: path}).Err
}

// Load replaces the machine state wholesale from path and forces Step
// mode regardless of the saved mode.
func (c *Controller) Load(path string) error {
	return c.submit(&command{kind: cmdLoad, path: path}).Err
}

// Stats returns a diagnostic snapshot for a REPL status line.
func (c *Controller) Stats() (Stats, error) {
	res := c.submit(&command{kind: cmdStats})
	return res.Stats, res.Err
}

// Shutdown stops the event loop. Run returns nil after this call's
// reply is delivered.
func (c *Controller) Shutdown() error {
	return c.submit(&command{kind: cmdShutdown}).Err
}
