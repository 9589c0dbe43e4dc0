package live

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/flow-meter-service/pkg/common"
)

// Registry maps a meter code to its live subscribers. A meter code is present
// only while it has at least one subscriber.
type Registry struct {
	mu     sync.RWMutex
	meters map[string]map[string]Subscriber
	logger *zap.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		meters: make(map[string]map[string]Subscriber),
		logger: common.GetLoggerWith(common.LoggerNameLive,
			zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryLiveRegistry)),
	}
}

func (r *Registry) Register(meterCode string, sub Subscriber) {
	r.mu.Lock()
	subs, ok := r.meters[meterCode]
	if !ok {
		subs = make(map[string]Subscriber)
		r.meters[meterCode] = subs
	}
	subs[sub.ID()] = sub
	count := len(subs)
	r.mu.Unlock()

	r.logger.Debug("Subscriber registered",
		zap.String("meter_code", meterCode),
		zap.String("subscriber_id", sub.ID()),
		zap.Int("subscribers", count))
}

// Unregister removes sub from meterCode. Removing an unknown subscriber is a no-op.
func (r *Registry) Unregister(meterCode string, sub Subscriber) {
	r.mu.Lock()
	subs, ok := r.meters[meterCode]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, ok := subs[sub.ID()]; !ok {
		r.mu.Unlock()
		return
	}
	delete(subs, sub.ID())
	if len(subs) == 0 {
		delete(r.meters, meterCode)
	}
	count := len(subs)
	r.mu.Unlock()

	r.logger.Debug("Subscriber unregistered",
		zap.String("meter_code", meterCode),
		zap.String("subscriber_id", sub.ID()),
		zap.Int("subscribers", count))
}

// Snapshot returns a point-in-time copy of meterCode's subscribers.
func (r *Registry) Snapshot(meterCode string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.meters[meterCode]
	if len(subs) == 0 {
		return nil
	}
	out := make([]Subscriber, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub)
	}
	return out
}

func (r *Registry) Count(meterCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meters[meterCode])
}

// Meters returns the sorted codes that currently have subscribers.
func (r *Registry) Meters() []string {
	r.mu.RLock()
	codes := make([]string, 0, len(r.meters))
	for code := range r.meters {
		codes = append(codes, code)
	}
	r.mu.RUnlock()

	sort.Strings(codes)
	return codes
}

// CloseAll closes and forgets every subscriber. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	meters := r.meters
	r.meters = make(map[string]map[string]Subscriber)
	r.mu.Unlock()

	closed := 0
	for code, subs := range meters {
		for _, sub := range subs {
			if err := sub.Close(); err != nil {
				r.logger.Debug("Close subscriber failed",
					zap.String("meter_code", code),
					zap.String("subscriber_id", sub.ID()),
					zap.Error(err))
			}
			closed++
		}
	}
	r.logger.Info("Closed all live subscribers", zap.Int("subscribers", closed))
}
