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
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jwarwick/synacor/pkg/codec"
	"github.com/jwarwick/synacor/pkg/encoding"
)

var helpvar bool
var annotatevar string

const usage = "synacor-disasm [-annotate notes.txt] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.StringVar(&annotatevar, "annotate", "", "Annotation file, one \"addr: text\" entry per line")
	flag.Parse()
}

// loadAnnotations parses a file of "addr: text" lines (blank lines and
// lines without a colon are skipped) into the map Disassemble expects.
func loadAnnotations(path string) (map[uint16]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	annotations := make(map[uint16]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, text, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		addr, err := parseAddr(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("annotation file %s: %w", path, err)
		}
		annotations[addr] = strings.TrimSpace(text)
	}

	return annotations, nil
}

func parseAddr(s string) (uint16, error) {
	if addr, err := encoding.DecodeHex(s); err == nil {
		return addr, nil
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func synacorDisasm() int {
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

	mem := make([]uint16, codec.MemSize)
	n := len(data) / 2
	if n > codec.MemSize {
		n = codec.MemSize
	}
	for i := 0; i < n; i++ {
		mem[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}

	var annotations map[uint16]string
	if annotatevar != "" {
		annotations, err = loadAnnotations(annotatevar)
		if err != nil {
			log.Println(err)
			return 1
		}
	}

	for _, line := range codec.Disassemble(mem, annotations) {
		fmt.Println(line)
	}

	return 0
}

func main() {
	os.Exit(synacorDisasm())
}
