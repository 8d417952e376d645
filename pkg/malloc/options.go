package malloc

import (
	"log/slog"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/region"
)

type config struct {
	strategy alloc.Strategy
	kind     region.Kind
	max      int
	log      *slog.Logger
	onFault  func(*alloc.Fault)
}

func defaultConfig() config {
	return config{
		strategy: alloc.FirstFit,
		kind:     region.KindAuto,
		max:      region.DefaultMax,
	}
}

// Option configures the default heap.
type Option func(*config)

// WithStrategy selects the block finder.
func WithStrategy(s alloc.Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithRegion selects the region implementation.
func WithRegion(k region.Kind) Option {
	return func(c *config) { c.kind = k }
}

// WithMaxHeap caps the region at n bytes.
func WithMaxHeap(n int) Option {
	return func(c *config) { c.max = n }
}

// WithLogger sets the heap's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithFaultHandler observes faults before the heap panics.
func WithFaultHandler(fn func(*alloc.Fault)) Option {
	return func(c *config) { c.onFault = fn }
}
