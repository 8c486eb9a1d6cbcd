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
	hubcast: relays collections.Hub puts to every connected websocket
	client. A client connects to /ws?pattern=orders.* and receives one text
	frame per matching Message, where a "*" dot-separated segment is the
	wildcard position; POSTing to /publish/<topic> with a body puts a
	tuple whose last value is the body.

	usage: hubcast <port>

*/
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/launix-de/reactor/collections"
	"github.com/launix-de/reactor/reactive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// server serializes every Atomically call behind ctrlLock: the Controller
// is single-writer, but HTTP handlers run on arbitrary goroutines.
type server struct {
	ctrlLock sync.Mutex
	ctrl     *reactive.Controller
	hub      *collections.Hub
}

func (s *server) atomically(fn func() error) error {
	s.ctrlLock.Lock()
	defer s.ctrlLock.Unlock()
	var err error
	reactive.WithController(s.ctrl, func() { err = s.ctrl.Atomically(fn) })
	return err
}

// patternSegments turns a dot-separated route like "orders.*" into a Hub
// pattern tuple, with a "*" segment becoming the wildcard value nil.
func patternSegments(route string) []any {
	if route == "" {
		route = "*"
	}
	segs := strings.Split(route, ".")
	out := make([]any, len(segs))
	for i, s := range segs {
		if s == "*" {
			out[i] = nil
		} else {
			out[i] = s
		}
	}
	return out
}

func formatMessage(msg collections.Message) string {
	parts := make([]string, len(msg.Values))
	for i, v := range msg.Values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, ".")
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	pattern := patternSegments(r.URL.Query().Get("pattern"))
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	var sendmutex sync.Mutex

	s.atomically(func() error {
		reactive.NewObserver(s.ctrl, func(ctrl *reactive.Controller) {
			msgs, err := s.hub.Get(ctrl, pattern...)
			if err != nil {
				return
			}
			for _, msg := range msgs {
				sendmutex.Lock()
				err := ws.WriteMessage(websocket.TextMessage, []byte(formatMessage(msg)))
				sendmutex.Unlock()
				if err != nil {
					return
				}
			}
		})
		return nil
	})

	// block until the client disconnects; the watcher's observer keeps
	// streaming matches in the meantime, running on whichever handler
	// goroutine's atomically call triggered the pass.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *server) handlePublish(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimPrefix(r.URL.Path, "/publish/")
	if topic == "" {
		http.Error(w, "missing topic", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	values := append(strings.Split(topic, "."), string(body))
	tuple := make([]any, len(values))
	for i, v := range values {
		tuple[i] = v
	}
	err = s.atomically(func() error {
		return s.hub.Put(s.ctrl, tuple...)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	io.WriteString(w, "ok\n")
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hubcast <port>")
		os.Exit(1)
	}
	s := &server{ctrl: reactive.NewController(), hub: collections.NewHub()}
	// the default controller is what Hub's diagnostic Manager sees via
	// reactive.Current() from goroutines that never called WithController
	// directly (e.g. a future background maintenance task).
	reactive.SetDefaultController(s.ctrl)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/publish/", s.handlePublish)

	addr := fmt.Sprintf(":%s", os.Args[1])
	fmt.Println("hubcast listening on", addr)
	panic(http.ListenAndServe(addr, mux))
}
