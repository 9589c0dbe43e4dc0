package iot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

func (i *IOT) insertReading(ctx context.Context, meter *models.Meter, sample models.Sample, at time.Time) (*models.Reading, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTReading),
	)

	reading := models.Reading{
		MeterID:     meter.ID,
		Timestamp:   at,
		FlowLps:     sample.FlowLps,
		LitersDelta: sample.LitersDelta,
		LitersTotal: sample.LitersTotal,
	}

	if err := i.Db.Conn.WithContext(ctx).Create(&reading).Error; err != nil {
		logger.Error("Insert reading failed", zap.String("meter_code", meter.MeterCode), zap.Error(err))
		return nil, &StorageError{Op: "insert reading", Err: err}
	}

	logger.Debug("Stored reading", zap.String("meter_code", meter.MeterCode), zap.Reflect("reading", reading))
	return &reading, nil
}

func (i *IOT) latestReading(ctx context.Context, meterID uint) (*models.Reading, error) {
	var reading models.Reading
	err := i.Db.Conn.WithContext(ctx).
		Where("meter_id = ?", meterID).
		Order("timestamp desc").
		Order("id desc").
		First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "latest reading", Err: err}
	}
	return &reading, nil
}

// recentReadings returns up to limit readings, newest first. limit is
// clamped to [1, MaxRecentLimit].
func (i *IOT) recentReadings(ctx context.Context, meterID uint, limit int) ([]models.Reading, error) {
	var readings []models.Reading
	err := i.Db.Conn.WithContext(ctx).
		Where("meter_id = ?", meterID).
		Order("timestamp desc").
		Order("id desc").
		Limit(common.Clamp(limit, 1, MaxRecentLimit)).
		Find(&readings).Error
	if err != nil {
		return nil, &StorageError{Op: "recent readings", Err: err}
	}
	return readings, nil
}

type IReadingImpl struct {
	iot *IOT
}

func (ir *IReadingImpl) InsertReading(ctx context.Context, meter *models.Meter, sample models.Sample, at time.Time) (*models.Reading, error) {
	return ir.iot.insertReading(ctx, meter, sample, at)
}

func (ir *IReadingImpl) LatestReading(ctx context.Context, meterID uint) (*models.Reading, error) {
	return ir.iot.latestReading(ctx, meterID)
}

func (ir *IReadingImpl) RecentReadings(ctx context.Context, meterID uint, limit int) ([]models.Reading, error) {
	return ir.iot.recentReadings(ctx, meterID, limit)
}

func (i *IOT) GetIReading() IReading {
	return &IReadingImpl{iot: i}
}
