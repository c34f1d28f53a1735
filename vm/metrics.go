package vm

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments for heap operations.
var (
	snapshotTotal  metric.Int64Counter
	rollbackTotal  metric.Int64Counter
	commitTotal    metric.Int64Counter
	allocatedTotal metric.Int64Counter
	freedTotal     metric.Int64Counter
	discardedCells metric.Int64Counter
	snapshotDepth  metric.Int64Histogram
	sweepDuration  metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// metricsEnabled gates recording for every heap in the process, on top of
// HeapOptions.Metrics.
var metricsEnabled atomic.Bool

func init() {
	metricsEnabled.Store(true)
}

// SetMetricsEnabled controls whether heap metrics are recorded.
func SetMetricsEnabled(enabled bool) {
	metricsEnabled.Store(enabled)
}

// initMetrics creates the instruments once, from the meter provider that
// is global at the first recorded operation.
func initMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.Meter("lexem.heap")
		var err error

		if snapshotTotal, err = meter.Int64Counter(
			"heap_snapshot_total",
			metric.WithDescription("Total number of BigNodes pushed by snapshot"),
		); err != nil {
			metricsErr = err
			return
		}

		if rollbackTotal, err = meter.Int64Counter(
			"heap_rollback_total",
			metric.WithDescription("Total number of BigNodes discarded by rollback"),
		); err != nil {
			metricsErr = err
			return
		}

		if commitTotal, err = meter.Int64Counter(
			"heap_commit_total",
			metric.WithDescription("Total number of BigNodes folded by commit"),
		); err != nil {
			metricsErr = err
			return
		}

		if allocatedTotal, err = meter.Int64Counter(
			"heap_cells_allocated_total",
			metric.WithDescription("Total number of cells allocated"),
		); err != nil {
			metricsErr = err
			return
		}

		if freedTotal, err = meter.Int64Counter(
			"heap_cells_freed_total",
			metric.WithDescription("Total number of cells freed by the collector"),
		); err != nil {
			metricsErr = err
			return
		}

		if discardedCells, err = meter.Int64Counter(
			"heap_cells_discarded_total",
			metric.WithDescription("Total number of cell diffs dropped by rollback"),
		); err != nil {
			metricsErr = err
			return
		}

		if snapshotDepth, err = meter.Int64Histogram(
			"heap_snapshot_depth",
			metric.WithDescription("Chain depth reached by each snapshot"),
		); err != nil {
			metricsErr = err
			return
		}

		if sweepDuration, err = meter.Float64Histogram(
			"heap_gc_sweep_duration_seconds",
			metric.WithDescription("Duration of collector sweeps in seconds"),
			metric.WithUnit("s"),
		); err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func metricsReady() bool {
	return metricsEnabled.Load() && initMetrics() == nil
}

func recordSnapshot(ctx context.Context, depth int) {
	if !metricsReady() {
		return
	}
	snapshotTotal.Add(ctx, 1)
	snapshotDepth.Record(ctx, int64(depth))
}

func recordRollback(ctx context.Context, nodes, cells int) {
	if !metricsReady() {
		return
	}
	rollbackTotal.Add(ctx, int64(nodes))
	discardedCells.Add(ctx, int64(cells))
}

func recordCommit(ctx context.Context, nodes int) {
	if !metricsReady() {
		return
	}
	commitTotal.Add(ctx, int64(nodes))
}

func recordAllocated(ctx context.Context, n int) {
	if !metricsReady() {
		return
	}
	allocatedTotal.Add(ctx, int64(n))
}

// recordSweep records a sweep; the attribute separates cascading sweeps
// (more than one cell) from single frees.
func recordSweep(ctx context.Context, stats *GCStats) {
	if !metricsReady() {
		return
	}
	kind := "single"
	if stats.Freed > 1 {
		kind = "cascade"
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	freedTotal.Add(ctx, int64(stats.Freed), attrs)
	sweepDuration.Record(ctx, stats.SweepDuration.Seconds(), attrs)
}
