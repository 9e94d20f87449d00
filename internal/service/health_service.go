package service

import (
	"context"
	"time"

	"product-api/internal/logger"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
)

const (
	StatusUp       = "UP"
	StatusDown     = "DOWN"
	StatusDisabled = "DISABLED"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type HealthService struct {
	Mongo Pinger
}

type HealthStatus struct {
	Mongo string
}

var HealthServiceTracer = otel.Tracer("HealthService")

// NewHealthService takes a nil pinger when the process runs without MongoDB.
func NewHealthService(mongo Pinger) *HealthService {
	return &HealthService{
		Mongo: mongo,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()

	if s.Mongo == nil {
		return HealthStatus{Mongo: StatusDisabled}
	}

	status := HealthStatus{Mongo: StatusUp}

	mongoCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Mongo.Ping(mongoCtx, readpref.Primary()); err != nil {
		logger.Warn(ctx, "MongoDB ping failed")
		status.Mongo = StatusDown
	}

	return status
}

func (h HealthStatus) Healthy() bool {
	return h.Mongo != StatusDown
}
