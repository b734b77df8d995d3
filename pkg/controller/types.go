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

// Package controller is the single-owner actor that drives a Synacor
// machine: it serialises commands onto the machine state, applies
// breakpoint/run-to/ret-mode policy before every instruction, and
// forwards `out` bytes to a terminal collaborator.
package controller

import (
	"github.com/jwarwick/synacor/pkg/codec"
	"github.com/jwarwick/synacor/pkg/vm"
)

type commandKind int

const (
	cmdRun commandKind = iota
	cmdStep
	cmdNext
	cmdUp
	cmdContinue
	cmdRet
	cmdBreakNow
	cmdAddBreak
	cmdRemoveBreak
	cmdClearBreak
	cmdListBreak
	cmdPeek
	cmdPoke
	cmdSetRegister
	cmdGetState
	cmdSetState
	cmdEvaluate
	cmdAnnotate
	cmdInput
	cmdSave
	cmdLoad
	cmdStats
	cmdShutdown
)

// command is the single envelope type carried on the controller's
// queue; only the fields relevant to Kind are populated by the caller.
type command struct {
	kind commandKind

	addr  uint16
	value uint16
	reg   uint8
	text  string
	path  string
	instr codec.Instruction
	state *vm.MachineState

	reply chan Result
}

// Result is the reply every command receives. Only the fields relevant
// to the originating command are populated.
type Result struct {
	Err error

	State       *vm.MachineState
	Value       uint16
	Annotation  string
	Breakpoints []uint16
	Stats       Stats
}

// Stats is a diagnostic snapshot of controller activity, exposed via
// the Stats command for a REPL status line.
type Stats struct {
	InstructionsExecuted uint64
	BreakpointHits       uint64
	PC                   uint16
	Mode                 vm.Mode
	Halted               bool
}
