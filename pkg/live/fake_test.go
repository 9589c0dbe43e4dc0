package live

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

var errBrokenPipe = errors.New("broken pipe")

type fakeSubscriber struct {
	id string

	mu      sync.Mutex
	events  []models.ReadingEvent
	sendErr error
	closed  int

	done     chan struct{}
	doneOnce sync.Once
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{id: uuid.NewString(), done: make(chan struct{})}
}

func newFailingSubscriber(err error) *fakeSubscriber {
	s := newFakeSubscriber()
	s.sendErr = err
	return s
}

func (s *fakeSubscriber) ID() string { return s.id }

func (s *fakeSubscriber) Send(ctx context.Context, event models.ReadingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSubscriber) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	s.hangUp()
	return nil
}

func (s *fakeSubscriber) Done() <-chan struct{} { return s.done }

func (s *fakeSubscriber) hangUp() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *fakeSubscriber) received() []models.ReadingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ReadingEvent(nil), s.events...)
}

func (s *fakeSubscriber) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
