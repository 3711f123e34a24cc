package registry

import "github.com/prometheus/client_golang/prometheus"

var (
	hostsCached = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hostcore",
		Subsystem: "registry",
		Name:      "hosts_cached",
		Help:      "Number of host facades currently cached in the registry.",
	})

	hostBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostcore",
		Subsystem: "registry",
		Name:      "host_builds_total",
		Help:      "Number of times a host facade was built (first lookup, eviction rebuild, or stopped-engine rebuild).",
	}, []string{"alias"})

	hostEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostcore",
		Subsystem: "registry",
		Name:      "host_evictions_total",
		Help:      "Number of times a cached host facade was evicted.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(hostsCached, hostBuilds, hostEvictions)
}
