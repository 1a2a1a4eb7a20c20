package cache

import "github.com/prometheus/client_golang/prometheus"

var cacheOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecommerce_cache_operations_total",
		Help: "Cache operations by result and backend",
	},
	[]string{"op", "result", "backend"},
)

func init() {
	prometheus.MustRegister(cacheOperations)
}

func observe(op, result, backend string) {
	cacheOperations.WithLabelValues(op, result, backend).Inc()
}
