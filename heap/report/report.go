// Package report renders allocator statistics in the classic
// "heap management statistics" layout or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Format selects the output encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ErrUnknownFormat is returned for a Format outside the declared set.
var ErrUnknownFormat = errors.New("report: unknown format")

// Options controls rendering. The zero value writes plain text with
// ungrouped digits.
type Options struct {
	// Lang is a BCP 47 tag such as "en" or "de-CH". When set, counters are
	// printed with that locale's digit grouping.
	Lang string
	// Format picks text or JSON output.
	Format Format
	// RunID, when non-empty, is included in the output.
	RunID string
}

// Row is one labelled counter.
type Row struct {
	Label string
	Value int64
}

// Rows returns the counters in report order.
func Rows(s alloc.Stats) []Row {
	return []Row{
		{"mallocs", s.Mallocs},
		{"frees", s.Frees},
		{"reuses", s.Reuses},
		{"grows", s.Grows},
		{"splits", s.Splits},
		{"coalesces", s.Coalesces},
		{"blocks", s.Blocks},
		{"requested", s.Requested},
		{"max heap", s.MaxHeap},
	}
}

// Write renders s to w.
func Write(w io.Writer, s alloc.Stats, opts Options) error {
	switch opts.Format {
	case FormatText:
		return writeText(w, s, opts)
	case FormatJSON:
		return writeJSON(w, s, opts)
	default:
		return errors.Wrapf(ErrUnknownFormat, "format %d", opts.Format)
	}
}

func writeText(w io.Writer, s alloc.Stats, opts Options) error {
	sprintf := fmt.Sprintf
	if opts.Lang != "" {
		tag, err := language.Parse(opts.Lang)
		if err != nil {
			return errors.Wrapf(err, "report: language %q", opts.Lang)
		}
		pr := message.NewPrinter(tag)
		sprintf = func(format string, a ...any) string { return pr.Sprintf(format, a...) }
	}

	var sb strings.Builder
	sb.WriteString("\nheap management statistics\n")
	if opts.RunID != "" {
		sb.WriteString("run:\t\t" + opts.RunID + "\n")
	}
	for _, r := range Rows(s) {
		// Labels shorter than a tab stop need two tabs to line up.
		sep := "\t"
		if len(r.Label)+1 < 8 {
			sep = "\t\t"
		}
		sb.WriteString(r.Label + ":" + sep + sprintf("%d", r.Value) + "\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

type jsonReport struct {
	RunID string `json:"run_id,omitempty"`
	alloc.Stats
}

func writeJSON(w io.Writer, s alloc.Stats, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{RunID: opts.RunID, Stats: s})
}
