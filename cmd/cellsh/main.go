/*
Copyright (C) 2025  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
/*
	cellsh: an interactive shell over a reactive.Controller.

	set <name> <number>      write a Value cell, creating it if absent
	get <name>                read a cell's current value
	watch <name>               print a cell's value every time it settles
	cells                       list every known cell name
	exit

	Every cell is a plain Value; there is no command for defining derived
	(Maintain) cells.

*/
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dc0d/onexit"
	"github.com/shopspring/decimal"
	"github.com/launix-de/reactor/reactive"
)

const newprompt = "\033[32mcell>\033[0m "
const resultprompt = "\033[31m=\033[0m "

type cellsh struct {
	ctrl    *reactive.Controller
	values  map[string]*reactive.Value
	watches map[string]bool
}

func newCellsh() *cellsh {
	return &cellsh{
		ctrl:    reactive.NewController(),
		values:  map[string]*reactive.Value{},
		watches: map[string]bool{},
	}
}

func (c *cellsh) valueFor(name string) *reactive.Value {
	v, ok := c.values[name]
	if !ok {
		v = reactive.NewValue(decimal.Zero)
		c.values[name] = v
	}
	return v
}

func (c *cellsh) exec(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	var out bytes.Buffer

	switch fields[0] {
	case "set":
		if len(fields) != 3 {
			return "usage: set <name> <number>"
		}
		n, err := decimal.NewFromString(fields[2])
		if err != nil {
			return fmt.Sprintf("bad number: %v", err)
		}
		err = c.ctrl.Atomically(func() error {
			c.valueFor(fields[1]).Set(c.ctrl, n)
			return nil
		})
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
	case "get":
		if len(fields) != 2 {
			return "usage: get <name>"
		}
		var v any
		c.ctrl.Atomically(func() error {
			v = c.valueFor(fields[1]).Get(c.ctrl)
			return nil
		})
		fmt.Fprintf(&out, "%v", v)
	case "cells":
		for name := range c.values {
			fmt.Fprintf(&out, "%s\n", name)
		}
	case "watch":
		if len(fields) != 2 {
			return "usage: watch <name>"
		}
		name := fields[1]
		if c.watches[name] {
			return fmt.Sprintf("already watching %s", name)
		}
		c.watches[name] = true
		c.ctrl.Atomically(func() error {
			reactive.NewObserver(c.ctrl, func(ctrl *reactive.Controller) {
				v := c.valueFor(name).Get(ctrl)
				fmt.Printf("%s -> %v\n", name, v)
			})
			return nil
		})
	default:
		return fmt.Sprintf("unknown command: %s", fields[0])
	}
	return out.String()
}

func main() {
	fmt.Print(`cellsh Copyright (C) 2025   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;
`)
	sh := newCellsh()

	l, err := readline.NewEx(&readline.Config{
		Prompt:            newprompt,
		HistoryFile:       ".cellsh-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	onexit.Register(func() { l.Close() })
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			panic(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Println("panic:", r)
				}
			}()
			result := sh.exec(line)
			if result != "" {
				fmt.Print(resultprompt)
				fmt.Println(result)
			}
		}()
	}
	os.Exit(0)
}
