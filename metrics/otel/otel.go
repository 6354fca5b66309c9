// Package otel records cacheaside engine counters through an OpenTelemetry
// meter.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/cacheaside"
)

// Metrics implements cacheaside.Metrics. Each event is an Int64Counter
// increment tagged with the engine name.
type Metrics struct {
	requests metric.Int64Counter
	hits     metric.Int64Counter
	errors   metric.Int64Counter
	notFound metric.Int64Counter
}

var _ cacheaside.Metrics = (*Metrics)(nil)

func New(meter metric.Meter) (*Metrics, error) {
	requests, err := meter.Int64Counter(
		"cacheaside.requests",
		metric.WithDescription("Cache-aside requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	hits, err := meter.Int64Counter(
		"cacheaside.hits",
		metric.WithDescription("Requests served from the store"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter(
		"cacheaside.errors",
		metric.WithDescription("Absorbed store and decode errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}
	notFound, err := meter.Int64Counter(
		"cacheaside.hits.not_found",
		metric.WithDescription("Requests served by a cached not-found placeholder"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, hits: hits, errors: errs, notFound: notFound}, nil
}

// The Metrics interface carries no context; counters are recorded with
// context.Background.
func add(c metric.Int64Counter, name string) {
	c.Add(context.Background(), 1, metric.WithAttributes(attribute.String("cache.name", name)))
}

func (m *Metrics) Request(name string)     { add(m.requests, name) }
func (m *Metrics) Hit(name string)         { add(m.hits, name) }
func (m *Metrics) Error(name string)       { add(m.errors, name) }
func (m *Metrics) NotFoundHit(name string) { add(m.notFound, name) }
