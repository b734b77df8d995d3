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
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/jwarwick/synacor/pkg/controller"
	"github.com/jwarwick/synacor/pkg/encoding"
	"github.com/jwarwick/synacor/pkg/save"
	"github.com/jwarwick/synacor/pkg/terminal"
	"github.com/jwarwick/synacor/pkg/vm"
)

var helpvar bool
var debugvar bool
var resumevar string
var breakvar string

var shouldexit bool

const usage = "synacor [-debug] [-resume save.gob] [-break 0x06,0x18] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Starts the machine paused in the debugger")
	flag.StringVar(&resumevar, "resume", "", "Resumes from a previously saved machine image")
	flag.StringVar(&breakvar, "break", "", "Comma-separated hex breakpoint addresses")
	flag.Parse()
}

func synacor() int {
	if helpvar {
		fmt.Println(usage)
		return 0
	}

	args := flag.Args()
	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Println(err)
		return 1
	}

	st := vm.NewMachineState()
	st.LoadImage(data)

	if resumevar != "" {
		loaded, err := save.Read(resumevar)
		if err != nil {
			log.Println(err)
			return 1
		}
		st = loaded
	}

	for _, tok := range strings.Split(breakvar, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		addr, err := encoding.DecodeHex(tok)
		if err != nil {
			log.Println(err)
			return 1
		}
		st.SetBreakpoint(addr)
	}

	if debugvar {
		st.Mode = vm.ModeStep
	}

	bridge := terminal.NewBridge(os.Stdin, os.Stdout)
	ctrl := controller.New(st, bridge)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(loopDone)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	go func() {
		for range sigc {
			fmt.Println()
			ctrl.Break()
		}
	}()

	rawterm := terminal.NewRawTerm()
	if err := rawterm.EnterRaw(); err == nil {
		defer rawterm.ExitRaw()
	}

	if debugvar {
		exitRawTerm(rawterm)
		debugREPL(ctrl)
		enterRawTerm(rawterm)
	}

	for !shouldexit {
		stats, err := ctrl.Stats()
		if err != nil {
			log.Println(err)
			return 1
		}
		if stats.Halted {
			break
		}

		if stats.Mode == vm.ModeStep {
			exitRawTerm(rawterm)
			debugREPL(ctrl)
			enterRawTerm(rawterm)
			continue
		}

		line, err := bridge.ReadLine()
		if line != "" {
			if err := ctrl.Input(line); err != nil {
				log.Println(err)
				return 1
			}
		}
		if err != nil {
			break
		}
	}

	ctrl.Shutdown()
	<-loopDone

	return 0
}

func main() {
	os.Exit(synacor())
}
