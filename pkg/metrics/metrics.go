// Package metrics provides Prometheus metrics for the keizu service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TreeBuildsTotal tracks descendant tree builds by status
	TreeBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keizu",
			Subsystem: "tree",
			Name:      "builds_total",
			Help:      "Total number of descendant tree builds by status",
		},
		[]string{"status"},
	)

	// TreeNodes tracks how many nodes each tree build materialized
	TreeNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "keizu",
			Subsystem: "tree",
			Name:      "nodes",
			Help:      "Number of nodes materialized per descendant tree build",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// TreePrunedEdgesTotal counts child edges skipped because the child was already in the tree
	TreePrunedEdgesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "keizu",
			Subsystem: "tree",
			Name:      "pruned_edges_total",
			Help:      "Total number of child edges skipped because the child was already visited",
		},
	)

	// ClanResolutionsTotal tracks clan name resolutions by outcome
	ClanResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keizu",
			Subsystem: "clan",
			Name:      "resolutions_total",
			Help:      "Total number of clan name resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// EventsPublishedTotal tracks genealogy change events written to Kafka
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keizu",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of genealogy events published by event type and status",
		},
		[]string{"event_type", "status"},
	)
)

// Tree build statuses
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Clan resolution outcomes
const (
	OutcomeCreated = "created"
	OutcomeMerged  = "merged"
	OutcomeMatched = "matched"
)
