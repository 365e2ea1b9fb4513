// Package metrics holds the process counters. They live on a private
// registry and are exported as a node-exporter textfile at exit.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var factory = promauto.With(registry)

var (
	// FilesScanned counts candidate documents visited by the builder
	FilesScanned = factory.NewCounter(prometheus.CounterOpts{
		Name: "ctxgraph_files_scanned_total",
		Help: "Candidate documents visited during index builds",
	})

	// FilesSkipped counts unreadable files and walk errors
	FilesSkipped = factory.NewCounter(prometheus.CounterOpts{
		Name: "ctxgraph_files_skipped_total",
		Help: "Files skipped during index builds",
	})

	// NodesIndexed is the node count of the last built index
	NodesIndexed = factory.NewGauge(prometheus.GaugeOpts{
		Name: "ctxgraph_nodes_indexed",
		Help: "Nodes in the most recently built index",
	})

	// IDCollisions counts documents that replaced an earlier one with the same id
	IDCollisions = factory.NewCounter(prometheus.CounterOpts{
		Name: "ctxgraph_id_collisions_total",
		Help: "Documents that replaced an earlier document with the same id",
	})

	// ExternalLoads counts external loads by scheme and outcome
	ExternalLoads = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ctxgraph_external_loads_total",
		Help: "External reference loads by scheme and outcome",
	}, []string{"scheme", "outcome"})

	// OptionalSelections counts optional entries considered, by policy and result
	OptionalSelections = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ctxgraph_optional_selections_total",
		Help: "Optional entries considered during assembly by policy and result",
	}, []string{"policy", "result"})

	// Rebuilds counts watch-triggered rebuilds by result
	Rebuilds = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ctxgraph_rebuilds_total",
		Help: "Watch-triggered index rebuilds by result",
	}, []string{"result"})
)

// Registry exposes the private registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
