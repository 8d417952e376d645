package alloc

import (
	"log/slog"
)

// Option configures an Allocator.
type Option func(*Allocator)

// WithStrategy selects the block finder. The default is FirstFit.
func WithStrategy(s Strategy) Option {
	return func(a *Allocator) { a.strategy = s }
}

// WithLogger sets the logger for grow events and faults. The default is
// the process-wide logger.L.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithFaultHandler installs fn to observe contract violations before the
// allocator panics. fn may itself panic or exit; if it returns, the
// allocator panics with the fault.
func WithFaultHandler(fn func(*Fault)) Option {
	return func(a *Allocator) { a.onFault = fn }
}
