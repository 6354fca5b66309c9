// Package prom exports cacheaside engine counters to Prometheus.
package prom

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cacheaside"
)

// DefaultNamespace prefixes every series when New is given "".
const DefaultNamespace = "cacheaside"

// Metrics implements cacheaside.Metrics with one CounterVec per event,
// labelled by engine name. Safe for concurrent use.
type Metrics struct {
	requests *prometheus.CounterVec
	hits     *prometheus.CounterVec
	errors   *prometheus.CounterVec
	notFound *prometheus.CounterVec
}

var _ cacheaside.Metrics = (*Metrics)(nil)

// New registers the counters with reg (nil => prometheus.DefaultRegisterer).
// Engines sharing a namespace share the collectors: a second New with the
// same namespace reuses what is already registered.
func New(reg prometheus.Registerer, ns string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if ns == "" {
		ns = DefaultNamespace
	}

	var (
		m   Metrics
		err error
	)
	if m.requests, err = counter(reg, ns, "requests_total", "Cache-aside requests"); err != nil {
		return nil, err
	}
	if m.hits, err = counter(reg, ns, "hits_total", "Requests served from the store, including not-found hits and coalesced callers"); err != nil {
		return nil, err
	}
	if m.errors, err = counter(reg, ns, "errors_total", "Absorbed store and decode errors"); err != nil {
		return nil, err
	}
	if m.notFound, err = counter(reg, ns, "hit_not_found_cache_total", "Requests served by a cached not-found placeholder"); err != nil {
		return nil, err
	}
	return &m, nil
}

func counter(reg prometheus.Registerer, ns, name, help string) (*prometheus.CounterVec, error) {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      name,
		Help:      help,
	}, []string{"name"})

	if err := reg.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return cv, nil
}

func (m *Metrics) Request(name string)     { m.requests.WithLabelValues(name).Inc() }
func (m *Metrics) Hit(name string)         { m.hits.WithLabelValues(name).Inc() }
func (m *Metrics) Error(name string)       { m.errors.WithLabelValues(name).Inc() }
func (m *Metrics) NotFoundHit(name string) { m.notFound.WithLabelValues(name).Inc() }
