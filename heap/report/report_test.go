package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
)

var sample = alloc.Stats{
	Mallocs:   1234567,
	Frees:     2,
	Reuses:    3,
	Grows:     4,
	Splits:    5,
	Coalesces: 6,
	Blocks:    7,
	Requested: 8,
	MaxHeap:   9,
}

func TestWriteTextLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample, Options{}))

	want := "\nheap management statistics\n" +
		"mallocs:\t1234567\n" +
		"frees:\t\t2\n" +
		"reuses:\t\t3\n" +
		"grows:\t\t4\n" +
		"splits:\t\t5\n" +
		"coalesces:\t6\n" +
		"blocks:\t\t7\n" +
		"requested:\t8\n" +
		"max heap:\t9\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTextLocale(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"en", "mallocs:\t1,234,567\n"},
		{"de", "mallocs:\t1.234.567\n"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, sample, Options{Lang: tt.lang}))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestWriteTextBadLanguage(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, sample, Options{Lang: "not a tag!"})
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestWriteTextRunID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample, Options{RunID: "abc"}))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "run:\t\tabc", lines[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample, Options{Format: FormatJSON, RunID: "r1"}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "r1", got["run_id"])
	assert.EqualValues(t, 1234567, got["mallocs"])
	assert.EqualValues(t, 9, got["max_heap"])
}

func TestWriteJSONOmitsEmptyRunID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, alloc.Stats{}, Options{Format: FormatJSON}))
	assert.NotContains(t, buf.String(), "run_id")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, sample, Options{Format: Format(9)})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRowsOrder(t *testing.T) {
	var labels []string
	for _, r := range Rows(sample) {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{
		"mallocs", "frees", "reuses", "grows", "splits",
		"coalesces", "blocks", "requested", "max heap",
	}, labels)
}
