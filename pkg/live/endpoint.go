package live

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

// Endpoint runs the lifecycle of one live channel, independent of transport.
type Endpoint struct {
	Registry     *Registry
	WriteTimeout time.Duration
	Now          func() time.Time

	logger *zap.Logger
}

func NewEndpoint(registry *Registry, writeTimeout time.Duration) *Endpoint {
	if writeTimeout <= 0 {
		writeTimeout = common.DefaultLiveWriteTimeout
	}
	return &Endpoint{
		Registry:     registry,
		WriteTimeout: writeTimeout,
		Now:          time.Now,
		logger: common.GetLoggerWith(common.LoggerNameLive,
			zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryLiveChannel)),
	}
}

// Open sends the connected snapshot, registers sub under meterCode and blocks
// until the transport is done or ctx ends. If the snapshot cannot be written,
// sub is closed and never registered.
func (e *Endpoint) Open(ctx context.Context, meterCode string, sub Subscriber) error {
	sendCtx, cancel := context.WithTimeout(ctx, e.WriteTimeout)
	err := sub.Send(sendCtx, models.NewConnectedEvent(meterCode, e.Now()))
	cancel()
	if err != nil {
		_ = sub.Close()
		return fmt.Errorf("send connected event: %w", err)
	}

	e.Registry.Register(meterCode, sub)
	defer e.Registry.Unregister(meterCode, sub)

	e.logger.Info("Live channel opened",
		zap.String("meter_code", meterCode), zap.String("subscriber_id", sub.ID()))

	select {
	case <-sub.Done():
	case <-ctx.Done():
	}

	e.logger.Info("Live channel closed",
		zap.String("meter_code", meterCode), zap.String("subscriber_id", sub.ID()))
	return nil
}
