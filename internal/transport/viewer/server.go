// Package viewer pushes the client's rendered document to browsers over a
// websocket and relays their clicks back.
package viewer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

//go:embed shell.html
var shell []byte

// Clicker receives clicks relayed from a browser. *ui.Controller
// implements it.
type Clicker interface {
	Click(id string) <-chan struct{}
}

type Server struct {
	clicker Clicker
	log     *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu     sync.Mutex
	latest []byte
	subs   map[string]chan []byte
}

func NewServer(clicker Clicker, logger *log.Logger) *Server {
	return &Server{
		clicker: clicker,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see isLoopbackRemote
		},
		subs: map[string]chan []byte{},
	}
}

// Publish replaces the current page and queues it for every viewer. A
// viewer that has not yet sent the previous page only gets the newest.
// It never blocks.
func (s *Server) Publish(page []byte) {
	b, err := json.Marshal(PageMsg{Type: TypePage, HTML: string(page)})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
	for _, ch := range s.subs {
		offerLatest(ch, b)
	}
}

func offerLatest(ch chan []byte, b []byte) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.ShellHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

func (s *Server) ShellHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = rw.Write(shell)
	}
}

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

		// Handshake: must send HELLO first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var hello HelloMsg
		if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != TypeHello {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
			return
		}
		if hello.ProtocolVersion != Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("V%d", s.nextID.Add(1))
		out := make(chan []byte, 1)
		s.mu.Lock()
		s.subs[sid] = out
		if s.latest != nil {
			out <- s.latest
		}
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.subs, sid)
			s.mu.Unlock()
		}()
		s.log.Printf("viewer %s connected from %s", sid, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop: clicks. Viewers may sit idle for long stretches.
		_ = conn.SetReadDeadline(time.Time{})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var click ClickMsg
			if err := json.Unmarshal(msg, &click); err != nil || click.Type != TypeClick || click.ID == "" {
				continue
			}
			if s.clicker != nil {
				s.clicker.Click(click.ID)
			}
		}
		cancel()
		s.log.Printf("viewer %s disconnected", sid)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
