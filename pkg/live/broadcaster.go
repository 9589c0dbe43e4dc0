package live

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

// Broadcaster fans a reading event out to the subscribers of one meter and
// prunes the ones that fail. Delivery is at most once, never retried.
type Broadcaster struct {
	registry     *Registry
	writeTimeout time.Duration
	meterLocks   common.KeyedMutex
	logger       *zap.Logger
}

func NewBroadcaster(registry *Registry, writeTimeout time.Duration) *Broadcaster {
	if writeTimeout <= 0 {
		writeTimeout = common.DefaultLiveWriteTimeout
	}
	return &Broadcaster{
		registry:     registry,
		writeTimeout: writeTimeout,
		logger: common.GetLoggerWith(common.LoggerNameLive,
			zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryLiveBcast)),
	}
}

// Broadcast delivers event to every current subscriber of meterCode. Calls for
// the same meter are serialized so each subscriber sees them in call order.
// Call order matches storage order only if callers serialize per meter, as
// ingestion does. Failed subscribers are unregistered and closed after the pass.
func (b *Broadcaster) Broadcast(ctx context.Context, meterCode string, event models.ReadingEvent) {
	if b.registry.Count(meterCode) == 0 {
		return
	}

	unlock := b.meterLocks.Lock(meterCode)
	defer unlock()

	subs := b.registry.Snapshot(meterCode)
	if len(subs) == 0 {
		return
	}

	// the ingest request may finish before slow subscribers do
	deliverCtx := context.WithoutCancel(ctx)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []*DeliveryError
	)
	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscriber) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(deliverCtx, b.writeTimeout)
			defer cancel()

			if err := sub.Send(sendCtx, event); err != nil {
				mu.Lock()
				failed = append(failed, &DeliveryError{MeterCode: meterCode, SubscriberID: sub.ID(), Err: err})
				mu.Unlock()
			}
		}(sub)
	}
	wg.Wait()

	if len(failed) == 0 {
		b.logger.Debug("Broadcast delivered",
			zap.String("meter_code", meterCode), zap.Int("subscribers", len(subs)))
		return
	}

	byID := make(map[string]Subscriber, len(subs))
	for _, sub := range subs {
		byID[sub.ID()] = sub
	}
	for _, derr := range failed {
		sub := byID[derr.SubscriberID]
		b.registry.Unregister(meterCode, sub)
		_ = sub.Close()
		b.logger.Warn("Dropped live subscriber", zap.Error(derr))
	}
}
