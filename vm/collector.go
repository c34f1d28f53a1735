package vm

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/lexem/pkg/interval"
)

// HeapCollector exports a heap's statistics and the interval pool's
// occupancy as Prometheus metrics. Values are read at scrape time.
type HeapCollector struct {
	heap *Heap

	depth        *prometheus.Desc
	liveCells    *prometheus.Desc
	diffCells    *prometheus.Desc
	allocated    *prometheus.Desc
	freed        *prometheus.Desc
	sweeps       *prometheus.Desc
	poolSize     *prometheus.Desc
	poolReused   *prometheus.Desc
	poolReturned *prometheus.Desc
}

// NewHeapCollector creates a collector for h. Metric names are prefixed
// with namespace; the heap ID is a constant label.
func NewHeapCollector(h *Heap, namespace string) *HeapCollector {
	labels := prometheus.Labels{"heap": h.ID().String()}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "heap", name), help, nil, labels)
	}
	pool := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "interval_pool", name), help, nil, labels)
	}
	return &HeapCollector{
		heap:         h,
		depth:        desc("depth", "BigNodes above the root."),
		liveCells:    desc("live_cells", "Positions resolving to a live cell."),
		diffCells:    desc("diff_cells", "Cells overridden by the current BigNode."),
		allocated:    desc("cells_allocated_total", "Cells allocated since the heap was created."),
		freed:        desc("cells_freed_total", "Cells freed by the collector."),
		sweeps:       desc("gc_sweeps_total", "Collector sweeps that freed at least one cell."),
		poolSize:     pool("size", "Intervals parked in the free list."),
		poolReused:   pool("reused_total", "Interval acquisitions served from the free list."),
		poolReturned: pool("returned_total", "Intervals returned to the free list."),
	}
}

// Describe implements prometheus.Collector.
func (c *HeapCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.liveCells
	ch <- c.diffCells
	ch <- c.allocated
	ch <- c.freed
	ch <- c.sweeps
	ch <- c.poolSize
	ch <- c.poolReused
	ch <- c.poolReturned
}

// Collect implements prometheus.Collector.
func (c *HeapCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.heap.Stats()
	p := interval.Stats()

	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(s.Depth))
	ch <- prometheus.MustNewConstMetric(c.liveCells, prometheus.GaugeValue, float64(s.LiveCells))
	ch <- prometheus.MustNewConstMetric(c.diffCells, prometheus.GaugeValue, float64(s.DiffCells))
	ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.CounterValue, float64(s.Allocated))
	ch <- prometheus.MustNewConstMetric(c.freed, prometheus.CounterValue, float64(s.Freed))
	ch <- prometheus.MustNewConstMetric(c.sweeps, prometheus.CounterValue, float64(s.Sweeps))
	ch <- prometheus.MustNewConstMetric(c.poolSize, prometheus.GaugeValue, float64(p.Size))
	ch <- prometheus.MustNewConstMetric(c.poolReused, prometheus.CounterValue, float64(p.Reused))
	ch <- prometheus.MustNewConstMetric(c.poolReturned, prometheus.CounterValue, float64(p.Returned))
}
