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
	"log"

	"github.com/jwarwick/synacor/pkg/terminal"
)

// exitRawTerm and enterRawTerm bracket the debug REPL: the REPL wants
// normal cooked-terminal line editing, the running machine wants raw
// mode so it can poll stdin without blocking on Enter.
func exitRawTerm(t *terminal.RawTerm) {
	if err := t.ExitRaw(); err != nil {
		log.Println(err)
	}
}

func enterRawTerm(t *terminal.RawTerm) {
	if err := t.EnterRaw(); err != nil {
		log.Println(err)
	}
}
