package grpc

import (
	"context"
	"reflect"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/flow-meter-service/pkg/common"
)

type meterCredentials interface {
	GetMeterCode() string
	GetPin() string
}

// CreateRateLimitInterceptor limits the unary requests whose type is listed in
// targetReqTypes, keyed by their meter code. Only requests whose meter
// authenticates take a token; the others are rejected here.
func (s *MeterServer) CreateRateLimitInterceptor(targetReqTypes []any) grpc.UnaryServerInterceptor {
	targetTypeMap := common.Reducer(targetReqTypes,
		func(m map[reflect.Type]bool, t any) map[reflect.Type]bool {
			m[reflect.TypeOf(t)] = true
			return m
		},
		map[reflect.Type]bool{},
	)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if s.RateLimiterStore == nil {
			return handler(ctx, req)
		}

		if _, ok := targetTypeMap[reflect.TypeOf(req)]; ok {
			// empty codes fall through to the handler's validation
			if r, ok := req.(meterCredentials); ok && r.GetMeterCode() != "" {
				meterCode := r.GetMeterCode()
				if _, err := s.Iot.Meter.Authenticate(ctx, meterCode, r.GetPin()); err != nil {
					return nil, toStatus(err)
				}
				if !s.CheckMeterLimiter(meterCode) {
					return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
				}
			}
		}

		return handler(ctx, req)
	}
}
