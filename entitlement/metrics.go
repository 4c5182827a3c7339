package entitlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_sweep_passes_total",
		Help: "Total number of entitlement sweep passes, by outcome.",
	}, []string{"outcome"})

	notificationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_notifications_created_total",
		Help: "Total number of entitlement notifications created, by kind.",
	}, []string{"kind"})

	sweepFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_sweep_failures_total",
		Help: "Isolated failures during sweep passes, by stage.",
	}, []string{"stage"})
)
