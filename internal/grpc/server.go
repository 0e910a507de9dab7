package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"sushiDelivery/internal/auth"
	"sushiDelivery/internal/config"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// loggingInterceptor logs each unary call with its outcome and latency.
func loggingInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithFields(logrus.Fields{"method": info.FullMethod, "duration": time.Since(start)})
		if p, ok := auth.FromContext(ctx); ok {
			entry = entry.WithField("role", p.Role)
		}
		if err != nil {
			entry.WithError(err).Warn("grpc call failed")
		} else {
			entry.Debug("grpc call")
		}
		return resp, err
	}
}

// NewServer builds a grpc.Server with auth, logging, health and OrderService registered.
func NewServer(secret string, s *OrderServer, log logrus.FieldLogger) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			auth.NewUnaryAuthInterceptor(secret, healthCheckMethod),
			loggingInterceptor(log),
		),
		grpc.StreamInterceptor(auth.NewStreamAuthInterceptor(secret, "/grpc.health.v1.Health/Watch")),
	)
	RegisterOrderServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// StartGRPC starts the gRPC server on the configured address and returns a shutdown function.
func StartGRPC(cfg *config.Config, s *OrderServer, log logrus.FieldLogger) (func(context.Context) error, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	addr := cfg.GRPC.Address
	if addr == "" {
		addr = "127.0.0.1:50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := NewServer(cfg.Auth.JWTSecret, s, log)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.WithError(err).Error("grpc server stopped")
		}
	}()
	log.WithField("address", lis.Addr().String()).Info("grpc server listening")

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
