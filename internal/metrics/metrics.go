// Package metrics records pointer-control counters through the
// OpenTelemetry metric API. Without an installed SDK the global provider is
// a no-op, so recording is always safe.
package metrics

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ayusman/mudra"

// Metrics holds the counters. A nil *Metrics ignores every call.
type Metrics struct {
	frames            metric.Int64Counter
	gestures          metric.Int64Counter
	actions           metric.Int64Counter
	injectionFailures metric.Int64Counter

	// Local totals for the health endpoint.
	frameTotal   atomic.Int64
	actionTotal  atomic.Int64
	failureTotal atomic.Int64
}

// New creates counters on the given meter provider.
func New(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(instrumentationName)

	m := &Metrics{}
	var err error

	if m.frames, err = meter.Int64Counter("mudra.frames",
		metric.WithDescription("Frames processed by the control loop")); err != nil {
		return nil, fmt.Errorf("create frames counter: %w", err)
	}
	if m.gestures, err = meter.Int64Counter("mudra.gestures",
		metric.WithDescription("Frames classified per gesture")); err != nil {
		return nil, fmt.Errorf("create gestures counter: %w", err)
	}
	if m.actions, err = meter.Int64Counter("mudra.actions",
		metric.WithDescription("Pointer actions injected")); err != nil {
		return nil, fmt.Errorf("create actions counter: %w", err)
	}
	if m.injectionFailures, err = meter.Int64Counter("mudra.injection_failures",
		metric.WithDescription("Pointer injections that returned an error")); err != nil {
		return nil, fmt.Errorf("create injection failures counter: %w", err)
	}

	return m, nil
}

// NewGlobal creates counters on the global meter provider.
func NewGlobal() (*Metrics, error) {
	return New(otel.GetMeterProvider())
}

// Frame counts one processed frame and its gesture.
func (m *Metrics) Frame(ctx context.Context, gesture string) {
	if m == nil {
		return
	}
	m.frameTotal.Add(1)
	m.frames.Add(ctx, 1)
	m.gestures.Add(ctx, 1, metric.WithAttributes(attribute.String("gesture", gesture)))
}

// Action counts one successfully injected pointer action.
func (m *Metrics) Action(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.actionTotal.Add(1)
	m.actions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

// InjectionFailure counts one failed pointer call.
func (m *Metrics) InjectionFailure(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.failureTotal.Add(1)
	m.injectionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

// Totals is a point-in-time copy of the local counters.
type Totals struct {
	Frames            int64 `json:"frames"`
	Actions           int64 `json:"actions"`
	InjectionFailures int64 `json:"injection_failures"`
}

// Totals returns the local counter values.
func (m *Metrics) Totals() Totals {
	if m == nil {
		return Totals{}
	}
	return Totals{
		Frames:            m.frameTotal.Load(),
		Actions:           m.actionTotal.Load(),
		InjectionFailures: m.failureTotal.Load(),
	}
}
