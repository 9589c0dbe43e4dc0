package iot

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

func (i *IOT) cachedMeters() *cache.Cache {
	if i.MeterCacheTTL <= 0 {
		return nil
	}
	i.cacheOnce.Do(func() {
		i.meterCache = cache.New(i.MeterCacheTTL, 2*i.MeterCacheTTL)
	})
	return i.meterCache
}

func (i *IOT) findMeter(ctx context.Context, meterCode string) (*models.Meter, error) {
	meters := i.cachedMeters()
	if meters != nil {
		if m, found := meters.Get(meterCode); found {
			meter := m.(models.Meter)
			return &meter, nil
		}
	}

	var meter models.Meter
	if err := i.Db.Conn.WithContext(ctx).Where("meter_code = ?", meterCode).First(&meter).Error; err != nil {
		return nil, err
	}

	if meters != nil {
		meters.SetDefault(meterCode, meter)
	}
	return &meter, nil
}

func (i *IOT) authenticate(ctx context.Context, meterCode, pin string) (*models.Meter, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTMeter),
	)

	if meterCode == "" || pin == "" {
		return nil, &AuthorizationError{MeterCode: meterCode}
	}

	meter, err := i.findMeter(ctx, meterCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Info("Unknown meter", zap.String("meter_code", meterCode))
		return nil, &AuthorizationError{MeterCode: meterCode}
	}
	if err != nil {
		logger.Error("Meter lookup failed", zap.String("meter_code", meterCode), zap.Error(err))
		return nil, &StorageError{Op: "find meter", Err: err}
	}

	if subtle.ConstantTimeCompare([]byte(meter.Pin), []byte(pin)) != 1 {
		logger.Info("Wrong pin for meter", zap.String("meter_code", meterCode))
		return nil, &AuthorizationError{MeterCode: meterCode}
	}

	return meter, nil
}

type IMeterImpl struct {
	iot *IOT
}

func (im *IMeterImpl) Authenticate(ctx context.Context, meterCode, pin string) (*models.Meter, error) {
	return im.iot.authenticate(ctx, meterCode, pin)
}

func (i *IOT) GetIMeter() IMeter {
	return &IMeterImpl{iot: i}
}

