// Package feed serves executed trades and the final run summary to websocket
// clients. It is a pure consumer of the simulation: it observes trades, it
// never influences them.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gagordon1/mm/internal/model"
)

type message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  4096,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// Server is a websocket hub broadcasting backtest output on /ws.
type Server struct {
	addr   string
	logger *slog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates a feed server listening on addr once Run is called.
func NewServer(addr string, logger *slog.Logger) *Server {
	return &Server{
		addr:       addr,
		logger:     logger.With(slog.String("component", "feed")),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 1024),
	}
}

// Run serves the feed until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	srv := &http.Server{Addr: s.addr, Handler: mux}

	go s.runHub(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("feed listening", slog.String("addr", s.addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) runHub(ctx context.Context) {
	clients := map[*client]bool{}
	defer func() {
		for c := range clients {
			close(c.send)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-s.register:
			clients[c] = true
		case c := <-s.unregister:
			if clients[c] {
				delete(clients, c)
				close(c.send)
			}
		case msg := <-s.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// slow client, drop it
					close(c.send)
					delete(clients, c)
				}
			}
		}
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256)}
	s.register <- c
	go c.writePump()
	go c.readPump(s)
}

// OnTrade broadcasts one executed trade. Implements the simulator's Observer.
func (s *Server) OnTrade(t model.Trade) {
	s.publish("trade", t)
}

// BroadcastSummary publishes the final run summary to all clients.
func (s *Server) BroadcastSummary(sum model.RunSummary) {
	s.publish("summary", sum)
}

func (s *Server) publish(typ string, v any) {
	b, err := json.Marshal(message{Type: typ, Data: v})
	if err != nil {
		s.logger.Error("marshal feed message", "error", err)
		return
	}
	select {
	case s.broadcast <- b:
	default:
		s.logger.Warn("feed broadcast buffer full, dropping message", slog.String("type", typ))
	}
}

// readPump discards client input; the feed is one-way.
func (c *client) readPump(s *Server) {
	defer func() {
		s.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(25 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
