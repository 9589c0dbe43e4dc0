package live

import (
	"context"
	"errors"
	"fmt"

	"liyu1981.xyz/flow-meter-service/pkg/models"
)

// ErrTransportClosed is returned by a subscriber whose transport has already
// gone away. It is an expected lifecycle event, not a failure of the peer.
var ErrTransportClosed = errors.New("live: transport closed")

// Subscriber is one live viewer of one meter. The registry only ever holds
// this handle, never the underlying transport.
type Subscriber interface {
	ID() string
	// Send writes one event. It must honor ctx's deadline.
	Send(ctx context.Context, event models.ReadingEvent) error
	Close() error
	// Done is closed once the transport reports the peer is gone.
	Done() <-chan struct{}
}

// DeliveryError is a failed send to a single subscriber. It never leaves the
// broadcaster, it is only logged.
type DeliveryError struct {
	MeterCode    string
	SubscriberID string
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to subscriber %s of meter %s: %v", e.SubscriberID, e.MeterCode, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
