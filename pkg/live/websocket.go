package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

// WebSocketSubscriber adapts a gorilla connection to Subscriber. gorilla allows
// one concurrent writer, so every write goes through writeMu.
type WebSocketSubscriber struct {
	id   string
	conn *websocket.Conn

	writeMu  sync.Mutex
	done     chan struct{}
	doneOnce sync.Once
	closeErr error
	closeOnce sync.Once
}

// NewWebSocketSubscriber wraps conn and starts draining its read side so that a
// peer close or network error is noticed without any write.
func NewWebSocketSubscriber(conn *websocket.Conn) *WebSocketSubscriber {
	s := &WebSocketSubscriber{
		id:   uuid.NewString(),
		conn: conn,
		done: make(chan struct{}),
	}
	go s.readPump()
	return s
}

func (s *WebSocketSubscriber) readPump() {
	defer s.markDone()
	for {
		if _, _, err := s.conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *WebSocketSubscriber) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *WebSocketSubscriber) ID() string {
	return s.id
}

func (s *WebSocketSubscriber) Done() <-chan struct{} {
	return s.done
}

func (s *WebSocketSubscriber) Send(ctx context.Context, event models.ReadingEvent) error {
	select {
	case <-s.done:
		return ErrTransportClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteJSON(event)
}

func (s *WebSocketSubscriber) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		s.closeErr = s.conn.Close()
		s.markDone()
	})
	return s.closeErr
}
