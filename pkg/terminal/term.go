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

// Package terminal is the boundary between a controller and a real
// TTY: raw-mode toggling on stdin, and a Bridge that turns machine
// output bytes into writes and line input into `input` commands.
package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// RawTerm toggles the calling process's stdin between cooked and raw
// mode, restoring the caller's original termios on ExitRaw.
type RawTerm struct {
	fd       int
	restored unix.Termios
	entered  bool
}

// NewRawTerm returns a RawTerm bound to os.Stdin.
func NewRawTerm() *RawTerm {
	return &RawTerm{fd: int(os.Stdin.Fd())}
}

// EnterRaw disables echo and canonical line buffering on stdin (signal
// generation stays on, so Ctrl-C still raises SIGINT), and sets a non-blocking read (VMIN=0, VTIME=0)
// so the REPL can poll for both program output and keyboard input.
func (t *RawTerm) EnterRaw() error {
	termios, err := unix.IoctlGetTermios(t.fd, unix.TCGETS)
	if err != nil {
		return err
	}

	t.restored = *termios
	raw := *termios

	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8

	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, &raw); err != nil {
		return err
	}

	t.entered = true
	return nil
}

// ExitRaw restores the termios captured by EnterRaw. It is a no-op if
// EnterRaw was never called.
func (t *RawTerm) ExitRaw() error {
	if !t.entered {
		return nil
	}
	return unix.IoctlSetTermios(t.fd, unix.TCSETS, &t.restored)
}
