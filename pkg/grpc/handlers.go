package grpc

import (
	"context"
	"errors"
	"fmt"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	pb "liyu1981.xyz/flow-meter-service/pkg/grpc/meter_service"
	"liyu1981.xyz/flow-meter-service/pkg/iot"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

func validateMeterCode(meterCode *string) z.ZogIssueList {
	var meterCodeValidator = z.String().Min(1).Required()
	return meterCodeValidator.Validate(meterCode)
}

// toStatus maps iot errors onto gRPC codes.
func toStatus(err error) error {
	var authErr *iot.AuthorizationError
	if errors.As(err, &authErr) {
		return status.Error(codes.PermissionDenied, "Medidor o PIN incorrecto")
	}

	common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Request failed", zap.Error(err))

	var storageErr *iot.StorageError
	if errors.As(err, &storageErr) {
		return status.Error(codes.Internal, "storage unavailable")
	}
	return status.Error(codes.Internal, "internal error")
}

func (s *MeterServer) Ingest(ctx context.Context, req *pb.IngestRequest) (*pb.IngestResponse, error) {
	if err := validateMeterCode(&req.MeterCode); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", err)
	}

	reading, err := s.Iot.Ingest.Ingest(ctx, req.MeterCode, req.Pin, models.Sample{
		FlowLps:     req.FlowLps,
		LitersDelta: req.LitersDelta,
		LitersTotal: req.LitersTotal,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.IngestResponse{
		Status:    &pb.StatusResponse{Success: true, Message: "OK"},
		ReadingId: uint64(reading.ID),
		Timestamp: common.FormatTimestamp(reading.Timestamp),
	}, nil
}

func (s *MeterServer) PostLimiter(ctx context.Context, req *pb.PostLimiterRequest) (*pb.PostLimiterResponse, error) {
	if err := validateMeterCode(&req.MeterCode); err != nil {
		return &pb.PostLimiterResponse{Status: &pb.StatusResponse{Success: false, Message: fmt.Sprintf("validation error: %v", err)}}, nil
	}

	var rateValidator = z.Float64().Required()
	if err := rateValidator.Validate(&req.Rate); err != nil {
		return &pb.PostLimiterResponse{Status: &pb.StatusResponse{Success: false, Message: fmt.Sprintf("validation error: %v", err)}}, nil
	}

	var burstValidator = z.Int32().Required()
	if err := burstValidator.Validate(&req.Burst); err != nil {
		return &pb.PostLimiterResponse{Status: &pb.StatusResponse{Success: false, Message: fmt.Sprintf("validation error: %v", err)}}, nil
	}

	if _, err := s.Iot.Meter.Authenticate(ctx, req.MeterCode, req.Pin); err != nil {
		return nil, toStatus(err)
	}

	if s.RateLimiterStore == nil {
		return &pb.PostLimiterResponse{
			Status: &pb.StatusResponse{
				Success: false,
				Message: "RateLimiterStore is not used. No effect.",
			},
		}, nil
	}

	s.RateLimiterStore.SetLimiter(req.MeterCode, rate.Limit(req.Rate), int(req.Burst))
	return &pb.PostLimiterResponse{Status: &pb.StatusResponse{Success: true, Message: "OK"}}, nil
}

func (s *MeterServer) Subscribe(req *pb.SubscribeRequest, stream pb.MeterService_SubscribeServer) error {
	if err := validateMeterCode(&req.MeterCode); err != nil {
		return status.Errorf(codes.InvalidArgument, "validation error: %v", err)
	}

	if s.Live == nil {
		return status.Error(codes.Unavailable, "live channel disabled")
	}

	if s.RequirePin {
		if _, err := s.Iot.Meter.Authenticate(stream.Context(), req.MeterCode, req.Pin); err != nil {
			return toStatus(err)
		}
	}

	sub := newStreamSubscriber(stream)
	defer sub.Close()

	if err := s.Live.Open(stream.Context(), req.MeterCode, sub); err != nil {
		return status.Errorf(codes.Unavailable, "open live channel: %v", err)
	}
	return nil
}
