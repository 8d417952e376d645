/*
Package malloc is the process-wide allocator surface.

It exposes Malloc, Calloc, Realloc and Free as package-level functions over
a single default heap that is created on first use. All calls are
serialized by one mutex, so the functions are safe for concurrent use even
though the underlying heap/alloc engine is not.

# Configuration

Settings must be chosen before the first allocation:

	if err := malloc.Configure(
	    malloc.WithStrategy(alloc.BestFit),
	    malloc.WithMaxHeap(256<<20),
	); err != nil {
	    log.Fatal(err)
	}

Configure returns ErrConfigured once the heap exists.

# Reporting

Exit prints the statistics report the first time it is called, and is
typically deferred from main:

	defer malloc.Exit(os.Stderr)
*/
package malloc
