package workload

import (
	"fmt"
	"math/rand"
)

// Random returns a churn script of n ops over sizes in [1, maxSize]:
// mostly mallocs and frees, with occasional callocs and reallocs. The same
// seed always yields the same script.
func Random(seed int64, n, maxSize int) *Script {
	rng := rand.New(rand.NewSource(seed))
	maxSize = max(maxSize, 1)

	s := &Script{Name: fmt.Sprintf("random-%d", seed), Ops: make([]Op, 0, n)}
	var live []string
	next := 0
	for range n {
		roll := rng.Intn(100)
		switch {
		case len(live) == 0 || roll < 45:
			name := fmt.Sprintf("h%d", next)
			next++
			s.Ops = append(s.Ops, Op{Op: OpMalloc, Handle: name, Size: 1 + rng.Intn(maxSize)})
			live = append(live, name)
		case roll < 55:
			name := fmt.Sprintf("h%d", next)
			next++
			size := 1 + rng.Intn(max(maxSize/8, 1))
			s.Ops = append(s.Ops, Op{Op: OpCalloc, Handle: name, Count: 8, Size: size})
			live = append(live, name)
		case roll < 65:
			name := live[rng.Intn(len(live))]
			s.Ops = append(s.Ops, Op{Op: OpRealloc, Handle: name, Size: 1 + rng.Intn(maxSize)})
		default:
			i := rng.Intn(len(live))
			s.Ops = append(s.Ops, Op{Op: OpFree, Handle: live[i]})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	return s
}
