// Package session drives LOLCODE runs over WebSocket connections. Each
// connection is one session; a run suspended on GIMMEH waits for the
// client's next input message.
package session

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"lolcode/internal/driver"
	"lolcode/internal/interpreter"
	"lolcode/internal/parser"
	"lolcode/internal/reporting"
)

// Message types on the wire.
const (
	TypeRun       = "run"
	TypeInput     = "input"
	TypeHello     = "hello"
	TypeSuspended = "suspended"
	TypeDone      = "done"
	TypeError     = "error"
)

// Message is the JSON envelope exchanged in both directions.
type Message struct {
	Type    string            `json:"type"`
	Session string            `json:"session,omitempty"`
	Source  string            `json:"source,omitempty"`
	Inputs  []string          `json:"inputs,omitempty"`
	Value   string            `json:"value,omitempty"`
	Prompt  string            `json:"prompt,omitempty"`
	Report  *reporting.Report `json:"report,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Server accepts WebSocket connections on /ws.
type Server struct {
	Addr     string
	Upgrader websocket.Upgrader
	Parser   parser.Options
	Run      interpreter.Options
	Logger   *log.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewServer(addr string, popts parser.Options, ropts interpreter.Options) *Server {
	return &Server{
		Addr:   addr,
		Parser: popts,
		Run:    ropts,
		Logger: log.Default(),
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessions: make(map[string]*Session),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down and closes
// every open session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Logger.Printf("session server listening on %s", s.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeAll()
		return errors.Wrap(srv.Shutdown(shutdown), "shutdown")
	})
	return g.Wait()
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Printf("upgrade failed: %v", err)
		return
	}

	sess := &Session{
		ID:     uuid.NewString(),
		conn:   conn,
		server: s,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.Logger.Printf("session %s opened from %s", sess.ID, r.RemoteAddr)
	sess.serve()

	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	s.Logger.Printf("session %s closed", sess.ID)
}

func (s *Server) closeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.close()
	}
}

// Session is one client connection. Its runs never share state with other
// sessions.
type Session struct {
	ID     string
	conn   *websocket.Conn
	server *Server

	mu     sync.Mutex
	closed bool
	cont   *interpreter.Continuation
}

func (s *Session) serve() {
	defer s.close()

	if err := s.send(Message{Type: TypeHello, Session: s.ID}); err != nil {
		return
	}
	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.server.Logger.Printf("session %s: read: %v", s.ID, err)
			}
			return
		}
		if err := s.send(s.handle(msg)); err != nil {
			s.server.Logger.Printf("session %s: write: %v", s.ID, err)
			return
		}
	}
}

// handle answers one client message.
func (s *Session) handle(msg Message) Message {
	switch msg.Type {
	case TypeRun:
		opts := s.server.Run
		opts.Inputs = msg.Inputs
		return s.reply(driver.Run(msg.Source, s.server.Parser, opts))

	case TypeInput:
		if s.cont == nil {
			return s.fail(interpreter.ErrNotSuspended)
		}
		cont := s.cont
		s.cont = nil
		res, err := cont.Resume(msg.Value)
		if err != nil {
			return s.fail(err)
		}
		return s.reply(res)
	}
	return s.fail(errors.Errorf("unknown message type %q", msg.Type))
}

func (s *Session) reply(res *interpreter.Result) Message {
	out := Message{Type: TypeDone, Session: s.ID, Report: reporting.FromResult(res)}
	s.cont = res.Continuation
	if res.Status == interpreter.StatusSuspended {
		out.Type = TypeSuspended
		out.Prompt = res.Continuation.Prompt
	}
	return out
}

func (s *Session) fail(err error) Message {
	return Message{Type: TypeError, Session: s.ID, Error: err.Error()}
}

func (s *Session) send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	return errors.Wrap(s.conn.WriteJSON(msg), "write message")
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.conn.Close()
}
