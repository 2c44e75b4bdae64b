package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	coachingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookback_coaching_requests_total",
		Help: "Coaching generation requests by outcome.",
	}, []string{"outcome"})

	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookback_search_requests_total",
		Help: "Reflection search requests by outcome.",
	}, []string{"outcome"})

	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookback_chat_requests_total",
		Help: "Grounded chat requests by outcome.",
	}, []string{"outcome"})

	reflectionIndexOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookback_reflection_index_ops_total",
		Help: "Background vector index operations by result.",
	}, []string{"op", "result"})
)

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func indexResultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "skipped"
}
