// Package observer streams live counter samples to read-only websocket
// clients, so an external plotter or dashboard can watch a run as it
// happens. Clients must open with a SUBSCRIBE handshake; the server only
// pushes, never accepts input beyond that.
package observer

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"epidemia.dev/internal/sim/epidemic"
)

const Version = "1"

type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

type SampleMsg struct {
	Type string `json:"type"`
	epidemic.Sample
}

type ReportMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	epidemic.Report
}

// Server fans samples out to subscribers. It implements epidemic.Observer;
// a slow client loses frames rather than stalling the simulation.
type Server struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only
		},
		subs: map[chan []byte]struct{}{},
	}
}

// Observe broadcasts one sample frame.
func (s *Server) Observe(smp epidemic.Sample) {
	s.broadcast(SampleMsg{Type: "SAMPLE", Sample: smp})
}

// PublishReport broadcasts the run-end report and closes all streams.
func (s *Server) PublishReport(rep epidemic.Report) {
	s.broadcast(ReportMsg{Type: "REPORT", Reason: rep.Reason.String(), Report: rep})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
}

func (s *Server) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- b:
		default:
			// Subscriber is behind; drop the frame.
		}
	}
}

func (s *Server) subscribe() (chan []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	ch := make(chan []byte, 256)
	s.subs[ch] = struct{}{}
	return ch, true
}

func (s *Server) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

// WSHandler upgrades a connection, performs the SUBSCRIBE handshake and
// streams frames until the run ends or the client disconnects.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil ||
			sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != Version {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"),
				time.Now().Add(time.Second))
			return
		}

		ch, ok := s.subscribe()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"),
				time.Now().Add(time.Second))
			return
		}
		defer s.unsubscribe(ch)
		s.log.Debug("observer subscribed", "remote", r.RemoteAddr)

		// Drain the client's side solely to notice disconnects.
		go func() {
			_ = conn.SetReadDeadline(time.Time{})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					s.unsubscribe(ch)
					return
				}
			}
		}()

		for b := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"),
			time.Now().Add(time.Second))
	}
}

func isLoopbackRemote(remote string) bool {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
