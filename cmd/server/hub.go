package main

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"epigrid/internal/sim"
	"epigrid/internal/wire"
)

type controlHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	last     *sim.Record

	sim    *sim.Simulation
	logger *log.Logger
}

func newControlHub(s *sim.Simulation, logger *log.Logger) *controlHub {
	return &controlHub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sim:    s,
		logger: logger,
	}
}

func (h *controlHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *controlHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// greet sends the current controls and the latest record to a new client.
func (h *controlHub) greet(conn *websocket.Conn) {
	control := wire.Snapshot(h.sim.Controls())
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send(conn, wire.Frame{Control: &control})
	if h.last != nil {
		rec := *h.last
		h.send(conn, wire.Frame{Record: &rec})
	}
}

// send writes f to one client. Callers hold h.mu, which also serializes
// writers per connection.
func (h *controlHub) send(conn *websocket.Conn, f wire.Frame) {
	payload, err := wire.MarshalFrame(f)
	if err != nil {
		h.logger.Error("failed to encode frame", "err", err)
		return
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		h.logger.Warn("failed to write to client", "remote", conn.RemoteAddr(), "err", err)
	}
}

func (h *controlHub) broadcast(f wire.Frame) {
	payload, err := wire.MarshalFrame(f)
	if err != nil {
		h.logger.Error("failed to encode frame", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			h.logger.Warn("failed to write to client", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *controlHub) broadcastRecord(r sim.Record) {
	h.mu.Lock()
	h.last = &r
	h.mu.Unlock()
	h.broadcast(wire.Frame{Record: &r})
}

func (h *controlHub) broadcastControl(c sim.ControlSnapshot) {
	settings := wire.Snapshot(c)
	h.broadcast(wire.Frame{Control: &settings})
}

func (h *controlHub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "err", err)
			return
		}
		h.add(conn)
		defer h.remove(conn)
		h.logger.Debug("client connected", "remote", conn.RemoteAddr())

		h.greet(conn)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn("control stream read error", "err", err)
				}
				return
			}

			f, err := wire.UnmarshalFrame(data)
			if err != nil {
				h.logger.Warn("unable to decode frame", "err", err)
				continue
			}
			if f.Control == nil {
				h.logger.Debug("ignoring non-control frame from client")
				continue
			}
			h.broadcastControl(h.sim.ApplyControlSettings(*f.Control))
		}
	}
}
