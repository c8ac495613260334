package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcilerLinks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_reconciler_links_total",
			Help: "Bookings linked to projects, by trigger",
		},
		[]string{"trigger"},
	)
	reconcilerMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_reconciler_misses_total",
			Help: "Link attempts that found no matching project, by trigger",
		},
		[]string{"trigger"},
	)
	ingestedBookings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_ingested_bookings_total",
			Help: "Booking records created, by ingestion source",
		},
		[]string{"source"},
	)
	onboardingSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_submissions_total",
			Help: "Onboarding submissions, by outcome",
		},
		[]string{"outcome"},
	)
)
