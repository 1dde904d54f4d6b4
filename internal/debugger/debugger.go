// Package debugger streams live VM instruction events to connected
// websocket clients for --debug-server, grounded on the teacher's
// internal/debugger live-stream server and its github.com/gorilla/websocket
// usage.
package debugger

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"gscript/internal/bytecode"
)

// Event is the JSON shape pushed to every connected client after each
// instruction the VM executes.
type Event struct {
	PC         int    `json:"pc"`
	StackDepth int    `json:"stack_depth"`
	Op         string `json:"op"`
	Instr      string `json:"instr"`
}

// Server is a vm.DebugHook that fans out Events to every websocket client
// currently connected to it.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
}

func New(addr string) *Server {
	return &Server{
		addr:     addr,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

// Start serves the websocket endpoint in the background; it does not block.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug", s.handle)
	go func() {
		if err := http.ListenAndServe(s.addr, mux); err != nil {
			log.Printf("debug server stopped: %v", err)
		}
	}()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
}

// OnInstruction implements vm.DebugHook: it is called synchronously after
// every instruction and writes the event to each client in turn while
// holding the server's lock, so a slow client slows the interpreter. A
// client whose write fails is closed and dropped.
func (s *Server) OnInstruction(pc int, stackDepth int, instr bytecode.Instruction) {
	payload, err := json.Marshal(Event{
		PC:         pc,
		StackDepth: stackDepth,
		Op:         instr.Op.String(),
		Instr:      instr.String(),
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// Close drops every connected client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}
