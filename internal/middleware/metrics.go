package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by command name. The cache layer
// hooks increment this so operators can alert on cache degradation.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tribunal_redis_errors_total",
	Help: "Total number of Redis command errors by command",
}, []string{"command"})

// InitMetrics creates the Prometheus middleware instance for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
