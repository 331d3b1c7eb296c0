package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hehememe_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ActiveWebSockets is the gauge of currently open feed-event connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hehememe_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketDrops counts outbound messages dropped per client by reason.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hehememe_websocket_drops_total",
		Help: "Total number of dropped WebSocket messages by reason",
	}, []string{"reason"})

	// LikeConflicts counts duplicate like submissions rejected with 409.
	LikeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hehememe_like_conflicts_total",
		Help: "Total number of duplicate like submissions",
	})

	// ReactionUploads counts stored reaction stills by result.
	ReactionUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hehememe_reaction_uploads_total",
		Help: "Total number of reaction image uploads by result",
	}, []string{"result"})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus request instrumentation.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
