package main

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/logger"
)

// newHeap builds an allocator from the --region and --max-heap flags.
// The caller must close the returned region.
func newHeap(s alloc.Strategy) (*alloc.Allocator, region.Closeable, error) {
	kind, err := region.ParseKind(regionKind)
	if err != nil {
		return nil, nil, err
	}
	r, err := region.New(kind, maxHeap)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create region: %w", err)
	}
	log := logger.L.With(logger.StrategyKey, s.String())
	return alloc.New(r, alloc.WithStrategy(s), alloc.WithLogger(log)), r, nil
}
