// Package metrics holds the Prometheus collectors of the quiz service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuizzesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_sessions_started_total",
		Help: "Total number of quiz sessions started, by quiz.",
	}, []string{"quiz"})

	QuizzesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_sessions_finished_total",
		Help: "Total number of quiz sessions that reached a summary, by quiz and reason.",
	}, []string{"quiz", "reason"})

	QuizzesAbandoned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_sessions_abandoned_total",
		Help: "Total number of quiz sessions dropped before a summary, by quiz.",
	}, []string{"quiz"})

	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_answers_total",
		Help: "Total number of accepted answers, by quiz and tier.",
	}, []string{"quiz", "tier"})

	ScorePercentage = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quiz_score_percentage",
		Help:    "Distribution of final score percentages.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	}, []string{"quiz"})

	ScoreSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_score_save_failures_total",
		Help: "Total number of final scores that could not be persisted.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_active_sessions",
		Help: "Number of live learner sessions.",
	})
)
