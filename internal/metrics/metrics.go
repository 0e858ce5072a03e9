// Package metrics holds the OpenTelemetry instruments of the viewer. They
// report to the global meter provider, which is a no-op unless the host
// installs an SDK.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/philipparndt/splatroam/internal/metrics"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Instruments groups the counters. A nil *Instruments records nothing.
type Instruments struct {
	rebuilds    metric.Int64Counter
	disposed    metric.Int64Counter
	writes      metric.Int64Counter
	transitions metric.Int64Counter
}

// New creates the instruments on the global meter
func New() (*Instruments, error) {
	return newInstruments(meter())
}

// Nop returns instruments backed by a no-op meter
func Nop() *Instruments {
	i, _ := newInstruments(noop.NewMeterProvider().Meter(instrumentationName))
	return i
}

func newInstruments(m metric.Meter) (*Instruments, error) {
	var (
		i   Instruments
		err error
	)

	i.rebuilds, err = m.Int64Counter(
		"splatroam.visual.rebuilds",
		metric.WithDescription("Scene objects created by the visualization sync"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rebuild counter: %w", err)
	}

	i.disposed, err = m.Int64Counter(
		"splatroam.visual.disposed",
		metric.WithDescription("Scene objects removed and disposed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating disposed counter: %w", err)
	}

	i.writes, err = m.Int64Counter(
		"splatroam.persistence.writes",
		metric.WithDescription("Path store write-through attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating write counter: %w", err)
	}

	i.transitions, err = m.Int64Counter(
		"splatroam.roaming.transitions",
		metric.WithDescription("Roaming state changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transition counter: %w", err)
	}

	return &i, nil
}

// Created counts new scene objects of a kind ("marker", "tube")
func (i *Instruments) Created(kind string, n int) {
	if i == nil || n == 0 {
		return
	}
	i.rebuilds.Add(context.Background(), int64(n),
		metric.WithAttributes(attribute.String("kind", kind)))
}

// Disposed counts released scene objects of a kind
func (i *Instruments) Disposed(kind string, n int) {
	if i == nil || n == 0 {
		return
	}
	i.disposed.Add(context.Background(), int64(n),
		metric.WithAttributes(attribute.String("kind", kind)))
}

// Write counts a persistence write and whether it failed
func (i *Instruments) Write(err error) {
	if i == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.writes.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("result", result)))
}

// Transition counts a roaming state change
func (i *Instruments) Transition(from, to string) {
	if i == nil {
		return
	}
	i.transitions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("from", from), attribute.String("to", to)))
}
