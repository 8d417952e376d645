// Package workload replays scripted allocation traffic against an
// allocator. Scripts are YAML documents listing operations on named
// handles; Random generates synthetic churn for strategy comparison.
package workload

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidScript indicates a script that failed validation.
	ErrInvalidScript = errors.New("workload: invalid script")

	// ErrUnknownHandle indicates an operation on a handle no earlier
	// operation allocated.
	ErrUnknownHandle = errors.New("workload: unknown handle")

	// ErrVerify indicates a verify operation found an unexpected byte.
	ErrVerify = errors.New("workload: verify mismatch")
)

// Kind names an operation.
type Kind string

const (
	OpMalloc  Kind = "malloc"
	OpCalloc  Kind = "calloc"
	OpRealloc Kind = "realloc"
	OpFree    Kind = "free"
	OpFill    Kind = "fill"
	OpVerify  Kind = "verify"
)

// Op is one scripted operation.
//
// Size is the byte count for malloc and realloc, the element size for
// calloc, and an optional prefix length for fill and verify (0 means the
// handle's requested size). Repeat > 1 expands the op into Repeat copies
// whose handles are suffixed ".0", ".1", ...
type Op struct {
	Op     Kind   `yaml:"op"`
	Handle string `yaml:"handle"`
	Size   int    `yaml:"size,omitempty"`
	Count  int    `yaml:"count,omitempty"`
	Byte   int    `yaml:"byte,omitempty"`
	Repeat int    `yaml:"repeat,omitempty"`
}

// Script is a named sequence of operations.
type Script struct {
	Name string `yaml:"name,omitempty"`
	// Strategy is an optional hint for tools replaying the script.
	Strategy string `yaml:"strategy,omitempty"`
	Ops      []Op   `yaml:"ops"`
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "workload: read %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "workload: %s", path)
	}
	return s, nil
}

// Parse decodes and validates a YAML script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Marshal encodes s as YAML.
func (s *Script) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks each op's fields. It does not track handle lifetimes;
// those are checked during Run.
func (s *Script) Validate() error {
	if len(s.Ops) == 0 {
		return errors.Wrap(ErrInvalidScript, "no ops")
	}
	for i, op := range s.Ops {
		if err := op.validate(); err != nil {
			return errors.Wrapf(ErrInvalidScript, "op %d (%s): %s", i, op.Op, err)
		}
	}
	return nil
}

func (op Op) validate() error {
	switch op.Op {
	case OpMalloc, OpCalloc, OpRealloc, OpFree, OpFill, OpVerify:
	case "":
		return errors.New("missing op")
	default:
		return errors.Newf("unknown op %q", string(op.Op))
	}
	switch {
	case op.Handle == "":
		return errors.New("missing handle")
	case op.Size < 0:
		return errors.Newf("negative size %d", op.Size)
	case op.Count < 0:
		return errors.Newf("negative count %d", op.Count)
	case op.Repeat < 0:
		return errors.Newf("negative repeat %d", op.Repeat)
	case op.Byte < 0 || op.Byte > 0xff:
		return errors.Newf("byte %d out of range", op.Byte)
	}
	return nil
}

// handles returns the handle names op expands to.
func (op Op) handles() []string {
	if op.Repeat <= 1 {
		return []string{op.Handle}
	}
	out := make([]string, op.Repeat)
	for i := range out {
		out[i] = fmt.Sprintf("%s.%d", op.Handle, i)
	}
	return out
}

// Len returns the number of steps after repeat expansion.
func (s *Script) Len() int {
	n := 0
	for _, op := range s.Ops {
		n += max(op.Repeat, 1)
	}
	return n
}
