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
	filewatch: bridges an external collaborator (the filesystem) into a
	reactive.Value. Every write to the watched file runs one atomically
	scope that sets the cell to the file's new contents; an Observer prints
	the line count whenever the contents settle.

	usage: filewatch <path>

*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/launix-de/reactor/reactive"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: filewatch <path>")
		os.Exit(1)
	}
	path := os.Args[1]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		panic(err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		panic(err)
	}

	ctrl := reactive.NewController()
	var contents *reactive.Value

	readFile := func() string {
		b, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return string(b)
	}

	err = ctrl.Atomically(func() error {
		contents = reactive.NewValue(readFile())
		reactive.NewObserver(ctrl, func(ctrl *reactive.Controller) {
			text := contents.Get(ctrl).(string)
			lines := 0
			if text != "" {
				lines = strings.Count(text, "\n") + 1
			}
			fmt.Printf("%s: %d lines\n", path, lines)
		})
		return nil
	})
	if err != nil {
		panic(err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			err := ctrl.Atomically(func() error {
				contents.Set(ctrl, readFile())
				return nil
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "atomically failed:", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintln(os.Stderr, "watcher error:", err)
		}
	}
}
