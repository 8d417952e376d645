package malloc

import (
	"io"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/heap/report"
)

// ErrConfigured is returned by Configure after the heap has been created.
var ErrConfigured = errors.New("malloc: heap already in use")

var (
	mu      sync.Mutex
	cfg     = defaultConfig()
	heap    *alloc.Allocator
	reg     region.Closeable
	initErr error

	exitOnce sync.Once
)

// Configure applies opts to the default heap. It must be called before
// the first allocation.
func Configure(opts ...Option) error {
	mu.Lock()
	defer mu.Unlock()
	if heap != nil || initErr != nil {
		return ErrConfigured
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return nil
}

// get returns the default heap, creating it on first use. mu must be held.
func get() (*alloc.Allocator, error) {
	if heap != nil || initErr != nil {
		return heap, initErr
	}
	r, err := region.New(cfg.kind, cfg.max)
	if err != nil {
		initErr = errors.Wrap(err, "malloc: create region")
		return nil, initErr
	}
	opts := []alloc.Option{alloc.WithStrategy(cfg.strategy), alloc.WithLogger(cfg.log)}
	if cfg.onFault != nil {
		opts = append(opts, alloc.WithFaultHandler(cfg.onFault))
	}
	reg = r
	heap = alloc.New(r, opts...)
	return heap, nil
}

// Malloc allocates size bytes from the default heap.
func Malloc(size int) (alloc.Ptr, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := get()
	if err != nil {
		return alloc.Nil, err
	}
	return h.Malloc(size)
}

// Calloc allocates count*size zeroed bytes from the default heap.
func Calloc(count, size int) (alloc.Ptr, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := get()
	if err != nil {
		return alloc.Nil, err
	}
	return h.Calloc(count, size)
}

// Realloc resizes p, moving its contents to a new block.
func Realloc(p alloc.Ptr, size int) (alloc.Ptr, error) {
	mu.Lock()
	defer mu.Unlock()
	h, err := get()
	if err != nil {
		return alloc.Nil, err
	}
	return h.Realloc(p, size)
}

// Free releases p. Freeing Nil is a no-op.
func Free(p alloc.Ptr) {
	if p == alloc.Nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	h, err := get()
	if err != nil {
		// No heap was ever created, so p cannot have come from it.
		panic(errors.Wrapf(err, "malloc: free(%#x)", int(p)))
	}
	h.Free(p)
}

// Bytes returns the payload of p. The slice is valid until p is freed;
// it must not be used concurrently with other calls that touch p.
func Bytes(p alloc.Ptr) []byte {
	mu.Lock()
	defer mu.Unlock()
	h, err := get()
	if err != nil {
		panic(errors.Wrapf(err, "malloc: bytes(%#x)", int(p)))
	}
	return h.Payload(p)
}

// Stats returns the default heap's counters, or zero values before first use.
func Stats() alloc.Stats {
	mu.Lock()
	defer mu.Unlock()
	if heap == nil {
		return alloc.Stats{}
	}
	return heap.Stats()
}

// Close releases the default heap's region. Every pointer obtained from
// the heap becomes invalid. A later allocation starts a new heap, and
// Configure may be called again before it.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	var err error
	if reg != nil {
		err = reg.Close()
	}
	heap, reg, initErr = nil, nil, nil
	return err
}

// Exit writes the statistics report to w. Only the first call writes.
func Exit(w io.Writer) error {
	var err error
	exitOnce.Do(func() {
		err = report.Write(w, Stats(), report.Options{})
	})
	return err
}
