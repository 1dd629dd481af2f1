package services

import (
	"context"
	"errors"
	"time"

	"github.com/keychain-connect/backend/internal/keychain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/keychain-connect/backend/internal/services"

// Connect results as recorded in the result attribute.
const (
	ResultApproved      = "approved"
	ResultNotConnected  = keychain.KindNotConnected
	ResultTimeout       = keychain.KindTimeout
	ResultInvalidOrigin = "invalid_origin"
	ResultCancelled     = "cancelled"
	ResultError         = "error"
)

type connectMetrics struct {
	results  metric.Int64Counter
	duration metric.Float64Histogram
}

func newConnectMetrics(mp metric.MeterProvider) connectMetrics {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)

	m := connectMetrics{}
	var err error
	m.results, err = meter.Int64Counter("keychain.connect.results",
		metric.WithDescription("Connect attempts by result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		m.results = noop.Int64Counter{}
	}
	m.duration, err = meter.Float64Histogram("keychain.connect.duration",
		metric.WithDescription("Time from connect request to result"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 30, 60, 120, 180, 240),
	)
	if err != nil {
		m.duration = noop.Float64Histogram{}
	}
	return m
}

func (m connectMetrics) record(ctx context.Context, started time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("result", connectResult(err)))
	ctx = context.WithoutCancel(ctx)
	m.results.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(started).Seconds(), attrs)
}

func connectResult(err error) string {
	switch {
	case err == nil:
		return ResultApproved
	case errors.Is(err, keychain.ErrNotConnected):
		return ResultNotConnected
	case errors.Is(err, keychain.ErrTimeout):
		return ResultTimeout
	case errors.Is(err, keychain.ErrInvalidOrigin):
		return ResultInvalidOrigin
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCancelled
	default:
		return ResultError
	}
}
