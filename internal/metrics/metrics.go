package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values
const (
	RoleHost  = "host"
	RoleGuest = "guest"

	ResultOK    = "ok"
	ResultError = "error"

	OutcomeMerged    = "merged"
	OutcomeDuplicate = "duplicate"
	OutcomeStale     = "stale"
	OutcomeRejected  = "rejected"

	SpinWin  = "win"
	SpinLoss = "loss"
)

var (
	Polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_polls_total",
			Help: "Remote document polls by role and result",
		},
		[]string{"role", "result"},
	)
	Publishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_publishes_total",
			Help: "Remote document writes by role and result",
		},
		[]string{"role", "result"},
	)
	Actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_actions_total",
			Help: "Guest actions seen by the host, by type and outcome",
		},
		[]string{"type", "outcome"},
	)
	Spins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_spins_total",
			Help: "Resolved spins by game mode and bettor result",
		},
		[]string{"mode", "result"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roulette_games_finished_total",
			Help: "Games that produced a winner",
		},
		[]string{"mode"},
	)
	BlobRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blobserver_requests_total",
			Help: "Blob server requests by method and status",
		},
		[]string{"method", "status"},
	)
	BlobRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blobserver_request_duration_seconds",
			Help:    "Blob server request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(Polls)
	prometheus.MustRegister(Publishes)
	prometheus.MustRegister(Actions)
	prometheus.MustRegister(Spins)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(BlobRequests)
	prometheus.MustRegister(BlobRequestDuration)
}

// Result maps an error to the result label
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// SpinResult maps a bettor's outcome to the spin label
func SpinResult(win bool) string {
	if win {
		return SpinWin
	}
	return SpinLoss
}
