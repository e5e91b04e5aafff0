package signaling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("signaling: backpressure")

// wsConn is the subset of *websocket.Conn the session needs, narrowed
// so tests can swap in a fake.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one signaling connection: a readPump goroutine decodes
// inbound frames into Controller.dispatch, a writePump goroutine drains
// a bounded outbound queue. TrySend never blocks the caller holding a
// channel or floor lock — a slow client drops frames instead of
// stalling the server.
type Session struct {
	conn wsConn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newSession(conn wsConn, queueSize int) *Session {
	return &Session{conn: conn, send: make(chan []byte, queueSize)}
}

func (s *Session) TrySend(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrBackpressure
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return ErrBackpressure
	}
}

func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.send)
	s.mu.Unlock()
	_ = s.conn.Close()
}

func (s *Session) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Str("module", "signaling").Err(err).Msg("write failed")
				return
			}
		}
	}
}

func (s *Session) readPump(ctx context.Context, onFrame func([]byte)) {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				return
			}
			onFrame(data)
		}
	}
}
