package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"liyu1981.xyz/flow-meter-service/pkg/common"
	"liyu1981.xyz/flow-meter-service/pkg/db"
	iotGrpc "liyu1981.xyz/flow-meter-service/pkg/grpc"
	pb "liyu1981.xyz/flow-meter-service/pkg/grpc/meter_service"
	iotHttp "liyu1981.xyz/flow-meter-service/pkg/http"
	"liyu1981.xyz/flow-meter-service/pkg/iot"
	"liyu1981.xyz/flow-meter-service/pkg/live"
	"liyu1981.xyz/flow-meter-service/pkg/mq"
)

func main() {
	var err error

	err = godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	cfg, err := common.LoadServiceConfig()
	if err != nil {
		log.Fatal(err)
	}

	dialector, ok := db.UseDialector(cfg.DBType, cfg.DBDSN)
	if !ok {
		log.Fatal("Unknown IOT_DB_TYPE (or IOT_DB_DSN missing for postgres): " + cfg.DBType)
	}
	dbInstance := db.GetInstance(dialector)

	logger := common.GetLogger()

	if cfg.SeedPath != "" {
		seed, err := db.LoadSeed(cfg.SeedPath)
		if err != nil {
			log.Fatalf("failed to load seed file: %v", err)
		}
		if err := db.ApplySeed(dbInstance.Conn, seed); err != nil {
			log.Fatalf("failed to apply seed file: %v", err)
		}
		logger.Info("Seed applied", zap.String("path", cfg.SeedPath), zap.Int("meters", len(seed.Meters)))
	}

	registry := live.NewRegistry()
	broadcaster := live.NewBroadcaster(registry, cfg.LiveWriteTimeout)
	endpoint := live.NewEndpoint(registry, cfg.LiveWriteTimeout)

	iotCore := &iot.IOT{
		Db:            *dbInstance,
		MeterCacheTTL: cfg.MeterCacheTTL,
	}
	iotCore.WithDefaultServices().WithServices(iot.ServiceOpts{
		Broadcaster: broadcaster,
	})

	if cfg.AmqpURL != "" {
		publisher, err := mq.Dial(cfg.AmqpURL, cfg.AmqpExchange)
		if err != nil {
			log.Fatalf("failed to start reading relay: %v", err)
		}
		defer publisher.Close()
		iotCore.WithServices(iot.ServiceOpts{Relay: publisher})
		logger.Info("Reading relay enabled", zap.String("exchange", cfg.AmqpExchange))
	}

	defaultLimiter := zap.String("default_limiter",
		fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst))

	var grpcServer *grpc.Server
	if cfg.GrpcHostPort != "" {
		meterServer := iotGrpc.MeterServer{
			Iot:              iotCore,
			RateLimiterStore: iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
			Live:             endpoint,
			RequirePin:       cfg.LiveRequirePin,
		}
		interceptor := meterServer.CreateRateLimitInterceptor([]any{
			&pb.IngestRequest{},
		})
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(interceptor))
		pb.RegisterMeterServiceServer(grpcServer, &meterServer)
		logger.Info("gRPC server created with:", defaultLimiter)

		listener, err := net.Listen("tcp", cfg.GrpcHostPort)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}

		go func() {
			logger.Info("start gRPC server on " + cfg.GrpcHostPort)
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
	}

	rs := &iotHttp.RestfulServer{
		Server:           gin.Default(),
		Iot:              iotCore,
		RateLimiterStore: iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst),
		Live:             endpoint,
		RequirePin:       cfg.LiveRequirePin,
	}
	rs.Setup()

	logger.Info("http server created with:", defaultLimiter,
		zap.Bool("live_require_pin", cfg.LiveRequirePin))

	httpServer := &http.Server{
		Addr:    cfg.HttpHostPort,
		Handler: rs.Server,
	}

	go func() {
		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed to serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// hijacked websocket connections are not tracked by http.Server
	registry.CloseAll()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}

	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
	}

	logger.Info("Server gracefully stopped")
}
