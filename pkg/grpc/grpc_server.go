package grpc

import (
	pb "liyu1981.xyz/flow-meter-service/pkg/grpc/meter_service"
	"liyu1981.xyz/flow-meter-service/pkg/iot"
	"liyu1981.xyz/flow-meter-service/pkg/live"
)

type MeterServer struct {
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore

	// Live serves Subscribe. Subscribe is unavailable when nil.
	Live       *live.Endpoint
	RequirePin bool

	pb.UnimplementedMeterServiceServer
}

// CheckMeterLimiter takes one token from the meter's limiter. Callers must
// authenticate the meter first, so only known meters get a limiter.
func (s *MeterServer) CheckMeterLimiter(meterCode string) bool {
	if s.RateLimiterStore == nil {
		return true
	}
	return s.RateLimiterStore.Allow(meterCode)
}
