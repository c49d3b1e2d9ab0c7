package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gameofbones_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// GeocodeLookups counts geocode resolutions by outcome
	// (hit, miss, negative, error, empty).
	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gameofbones_geocode_lookups_total",
		Help: "Total number of geocode lookups by outcome",
	}, []string{"outcome"})

	// LikeToggles counts like toggles by result (liked, unliked, conflict).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gameofbones_like_toggles_total",
		Help: "Total number of like toggles by result",
	}, []string{"result"})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the fiberprometheus request handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
