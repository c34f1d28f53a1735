package vm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapCollector(t *testing.T) {
	h := newTestHeap()
	a := h.Allocate(LxmInteger(1))
	h.Allocate(LxmInteger(2))
	h.Retain(a)
	h.Release(a)
	h.Snapshot()
	h.Allocate(LxmInteger(3))

	c := NewHeapCollector(h, "lexem")
	assert.Equal(t, 9, testutil.CollectAndCount(c))

	expected := fmt.Sprintf(`
# HELP lexem_heap_depth BigNodes above the root.
# TYPE lexem_heap_depth gauge
lexem_heap_depth{heap="%[1]s"} 1
# HELP lexem_heap_live_cells Positions resolving to a live cell.
# TYPE lexem_heap_live_cells gauge
lexem_heap_live_cells{heap="%[1]s"} 4
# HELP lexem_heap_cells_allocated_total Cells allocated since the heap was created.
# TYPE lexem_heap_cells_allocated_total counter
lexem_heap_cells_allocated_total{heap="%[1]s"} 3
# HELP lexem_heap_cells_freed_total Cells freed by the collector.
# TYPE lexem_heap_cells_freed_total counter
lexem_heap_cells_freed_total{heap="%[1]s"} 1
`, h.ID())
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"lexem_heap_depth", "lexem_heap_live_cells", "lexem_heap_cells_allocated_total", "lexem_heap_cells_freed_total")
	require.NoError(t, err)
}

func TestHeapCollector_Registers(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewHeapCollector(newTestHeap(), "lexem")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 9)
}
