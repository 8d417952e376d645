package alloc

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Ptr is the region offset of a block payload. Nil is the null pointer;
// every payload sits behind a header, so a valid Ptr is never 0.
type Ptr int

// Nil is the null Ptr.
const Nil Ptr = 0

// Strategy selects how the block finder chooses among free blocks.
type Strategy uint8

const (
	FirstFit Strategy = iota
	BestFit
	WorstFit
	NextFit
)

var strategyNames = [...]string{
	FirstFit: "first-fit",
	BestFit:  "best-fit",
	WorstFit: "worst-fit",
	NextFit:  "next-fit",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "unknown"
}

// Strategies returns every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{FirstFit, BestFit, WorstFit, NextFit}
}

// ParseStrategy converts a name such as "best-fit" into a Strategy.
// Underscores and a missing "-fit" suffix are accepted.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if !strings.HasSuffix(n, "-fit") {
		n += "-fit"
	}
	for i, s := range strategyNames {
		if s == n {
			return Strategy(i), nil
		}
	}
	return 0, errors.Newf("alloc: unknown strategy %q (want first-fit, best-fit, worst-fit or next-fit)", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Stats holds the allocator's counters. They are updated as a side effect
// of every operation and never reset.
type Stats struct {
	Mallocs   int64 `json:"mallocs"`   // successful allocations
	Frees     int64 `json:"frees"`     // releases of non-nil pointers
	Reuses    int64 `json:"reuses"`    // searches that found a free block
	Grows     int64 `json:"grows"`     // region extensions
	Splits    int64 `json:"splits"`    // free blocks carved in two
	Coalesces int64 `json:"coalesces"` // adjacent free blocks merged
	Blocks    int64 `json:"blocks"`    // blocks currently in the chain
	Requested int64 `json:"requested"` // sum of raw requested sizes
	MaxHeap   int64 `json:"max_heap"`  // sum of payload bytes added by growth
}

// BlockInfo describes one block of the chain.
type BlockInfo struct {
	Header int  `json:"header"` // header offset
	Ptr    Ptr  `json:"ptr"`    // payload offset
	Size   int  `json:"size"`   // payload bytes
	Free   bool `json:"free"`
}
