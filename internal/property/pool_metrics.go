package property

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the subset of pgxpool statistics exported to Prometheus.
type PoolStats struct {
	AcquiredConns     int32
	IdleConns         int32
	TotalConns        int32
	MaxConns          int32
	AcquireCount      int64
	EmptyAcquireCount int64
}

// StatsFromPool adapts a pool to a PoolStats source.
func StatsFromPool(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			AcquiredConns:     s.AcquiredConns(),
			IdleConns:         s.IdleConns(),
			TotalConns:        s.TotalConns(),
			MaxConns:          s.MaxConns(),
			AcquireCount:      s.AcquireCount(),
			EmptyAcquireCount: s.EmptyAcquireCount(),
		}
	}
}

// PoolCollector exposes connection pool statistics on /metrics.
type PoolCollector struct {
	stats func() PoolStats

	acquired     *prometheus.Desc
	idle         *prometheus.Desc
	total        *prometheus.Desc
	max          *prometheus.Desc
	acquires     *prometheus.Desc
	emptyAcquire *prometheus.Desc
}

func NewPoolCollector(stats func() PoolStats) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("property", "db_pool", name), help, nil, nil)
	}

	return &PoolCollector{
		stats:        stats,
		acquired:     desc("acquired_connections", "Connections currently checked out of the pool."),
		idle:         desc("idle_connections", "Idle connections in the pool."),
		total:        desc("total_connections", "Open connections in the pool."),
		max:          desc("max_connections", "Configured pool size."),
		acquires:     desc("acquires_total", "Successful connection acquisitions."),
		emptyAcquire: desc("empty_acquires_total", "Acquisitions that had to wait for a connection."),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquires
	ch <- c.emptyAcquire
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.MaxConns))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquire, prometheus.CounterValue, float64(s.EmptyAcquireCount))
}
