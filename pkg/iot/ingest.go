package iot

import (
	"context"

	"go.uber.org/zap"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

// ingest authenticates, persists, then fans out. Nothing is broadcast unless
// the reading is durably stored. Persist and broadcast hold the meter's lock,
// so subscribers see readings in the order they were stored.
func (i *IOT) ingest(ctx context.Context, meterCode, pin string, sample models.Sample) (*models.Reading, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTIngest),
	)

	meter, err := i.Meter.Authenticate(ctx, meterCode, pin)
	if err != nil {
		return nil, err
	}

	unlock := i.ingestLocks.Lock(meter.MeterCode)
	reading, err := i.Reading.InsertReading(ctx, meter, sample, i.now())
	if err != nil {
		unlock()
		return nil, err
	}

	logger.Info("Ingested reading",
		zap.String("meter_code", meter.MeterCode),
		zap.Float64("flow_lps", reading.FlowLps),
		zap.Float64("liters_total", reading.LitersTotal))

	event := models.NewReadingEvent(meter.MeterCode, *reading)

	if i.Broadcaster != nil {
		i.Broadcaster.Broadcast(ctx, meter.MeterCode, event)
	}
	unlock()

	if i.Relay != nil {
		if err := i.Relay.PublishReading(ctx, event); err != nil {
			logger.Warn("Relay publish failed", zap.String("meter_code", meter.MeterCode), zap.Error(err))
		}
	}

	return reading, nil
}

type IIngestImpl struct {
	iot *IOT
}

func (ii *IIngestImpl) Ingest(ctx context.Context, meterCode, pin string, sample models.Sample) (*models.Reading, error) {
	return ii.iot.ingest(ctx, meterCode, pin, sample)
}

func (i *IOT) GetIIngest() IIngest {
	return &IIngestImpl{iot: i}
}
