package grpc

import (
	"context"
	"sync"

	"github.com/google/uuid"
	pb "liyu1981.xyz/flow-meter-service/pkg/grpc/meter_service"
	"liyu1981.xyz/flow-meter-service/pkg/live"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

// streamSubscriber adapts a Subscribe server stream to live.Subscriber. The
// stream itself ends when the handler returns, which Close triggers.
type streamSubscriber struct {
	id     string
	stream pb.MeterService_SubscribeServer

	sendMu    sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newStreamSubscriber(stream pb.MeterService_SubscribeServer) *streamSubscriber {
	return &streamSubscriber{
		id:     uuid.NewString(),
		stream: stream,
		done:   make(chan struct{}),
	}
}

func (s *streamSubscriber) ID() string {
	return s.id
}

func (s *streamSubscriber) Done() <-chan struct{} {
	return s.done
}

// Send gives up when ctx expires. A send still blocked in the transport is
// released once the handler returns and the stream context is cancelled.
func (s *streamSubscriber) Send(ctx context.Context, event models.ReadingEvent) error {
	select {
	case <-s.done:
		return live.ErrTransportClosed
	case <-s.stream.Context().Done():
		return live.ErrTransportClosed
	default:
	}

	errCh := make(chan error, 1)
	go func() {
		s.sendMu.Lock()
		defer s.sendMu.Unlock()
		errCh <- s.stream.Send(&event)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return live.ErrTransportClosed
	}
}

func (s *streamSubscriber) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
