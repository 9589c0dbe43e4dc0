package iot

//go:generate mockgen -source=iot.go -destination=mocks/mock_iot.go -package=mocks

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/db"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

type IMeter interface {
	// Authenticate returns the meter when code and pin match, otherwise an
	// *AuthorizationError. Lookup failures are *StorageError.
	Authenticate(ctx context.Context, meterCode, pin string) (*models.Meter, error)
}

type IReading interface {
	InsertReading(ctx context.Context, meter *models.Meter, sample models.Sample, at time.Time) (*models.Reading, error)
	// LatestReading returns nil without error when the meter has no readings.
	LatestReading(ctx context.Context, meterID uint) (*models.Reading, error)
	RecentReadings(ctx context.Context, meterID uint, limit int) ([]models.Reading, error)
}

type IBroadcaster interface {
	Broadcast(ctx context.Context, meterCode string, event models.ReadingEvent)
}

type IRelay interface {
	PublishReading(ctx context.Context, event models.ReadingEvent) error
}

type IIngest interface {
	Ingest(ctx context.Context, meterCode, pin string, sample models.Sample) (*models.Reading, error)
}

type IOT struct {
	Db          db.DB
	Meter       IMeter
	Reading     IReading
	Ingest      IIngest
	Broadcaster IBroadcaster
	Relay       IRelay

	// MeterCacheTTL bounds how long an authenticated meter is served from
	// memory. Zero disables the cache.
	MeterCacheTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time

	cacheOnce  sync.Once
	meterCache *cache.Cache

	ingestLocks common.KeyedMutex
}

type ServiceOpts struct {
	Meter       IMeter
	Reading     IReading
	Ingest      IIngest
	Broadcaster IBroadcaster
	Relay       IRelay
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Meter != nil {
		i.Meter = opts.Meter
	}
	if opts.Reading != nil {
		i.Reading = opts.Reading
	}
	if opts.Ingest != nil {
		i.Ingest = opts.Ingest
	}
	if opts.Broadcaster != nil {
		i.Broadcaster = opts.Broadcaster
	}
	if opts.Relay != nil {
		i.Relay = opts.Relay
	}
	return i
}

// WithDefaultServices wires the database backed implementations for every
// service not set yet.
func (i *IOT) WithDefaultServices() *IOT {
	opts := ServiceOpts{}
	if i.Meter == nil {
		opts.Meter = i.GetIMeter()
	}
	if i.Reading == nil {
		opts.Reading = i.GetIReading()
	}
	if i.Ingest == nil {
		opts.Ingest = i.GetIIngest()
	}
	return i.WithServices(opts)
}

func (i *IOT) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}
