package pipeline

// Health is the aggregated health signal returned by HealthCheck.
type Health struct {
	Overall         string   `json:"overall_health"`
	SuccessRate     float64  `json:"success_rate"`
	OpenCircuits    []string `json:"open_circuits"`
	CacheHitRate    float64  `json:"cache_hit_rate"`
	PoolUtilization float64  `json:"pool_utilization"`
	PeakMemoryBytes uint64   `json:"peak_memory_bytes"`
}

// Health states.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthDown     = "down"
)

// HealthCheck aggregates the recent success ratio, circuit states and
// optimizer statistics into a single signal. Any open circuit degrades the
// signal; an open circuit combined with a failing success ratio is down.
func (p *Pipeline) HealthCheck() Health {
	h := Health{
		SuccessRate:     p.runtime.SuccessRate(),
		OpenCircuits:    p.runtime.OpenCircuits(),
		CacheHitRate:    p.runtime.Cache.HitRate(),
		PoolUtilization: p.runtime.ConvPool.Utilization(),
		PeakMemoryBytes: p.runtime.Memory.PeakRSS(),
	}

	switch {
	case len(h.OpenCircuits) > 0 && h.SuccessRate < 0.5:
		h.Overall = HealthDown
	case len(h.OpenCircuits) > 0 || h.SuccessRate < 0.9:
		h.Overall = HealthDegraded
	default:
		h.Overall = HealthOK
	}
	return h
}
