package external

import (
	"context"

	"ctxgraph/internal/metrics"
)

// Mux routes references to a loader by URL scheme. References without a
// scheme, or with an unregistered one, go to the fallback.
type Mux struct {
	routes   map[string]Loader
	fallback Loader
}

// NewMux creates a mux with the given fallback loader.
func NewMux(fallback Loader) *Mux {
	return &Mux{routes: make(map[string]Loader), fallback: fallback}
}

// Handle registers l for scheme.
func (m *Mux) Handle(scheme string, l Loader) {
	m.routes[scheme] = l
}

// Load dispatches ref.
func (m *Mux) Load(ctx context.Context, ref string) (string, bool) {
	scheme := Scheme(ref)
	l, ok := m.routes[scheme]
	if !ok {
		if scheme != "" {
			metrics.ExternalLoads.WithLabelValues(scheme, "unsupported").Inc()
			return "", false
		}
		l = m.fallback
		scheme = "file"
	}
	if l == nil {
		return "", false
	}

	text, found := l.Load(ctx, ref)
	outcome := "missing"
	if found {
		outcome = "loaded"
	}
	metrics.ExternalLoads.WithLabelValues(scheme, outcome).Inc()
	return text, found
}
