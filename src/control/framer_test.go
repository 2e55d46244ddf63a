package control

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramer_SplitRecordYieldsExactlyOneLine(t *testing.T) {
	f := NewFramer(0)

	assert.Empty(t, f.Feed([]byte(`{"type":"sta`)))
	assert.Equal(t, len(`{"type":"sta`), f.Pending())

	lines := f.Feed([]byte("tus\"}\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, `{"type":"status"}`, string(lines[0]))
	assert.Zero(t, f.Pending())

	rec, err := ParseUpstream(lines[0])
	require.NoError(t, err)
	assert.Equal(t, RecordStatus, rec.Type)
}

func TestFramer_MultipleLinesAndCRLF(t *testing.T) {
	f := NewFramer(0)
	lines := f.Feed([]byte("a\r\n\n   \nb\nc"))
	require.Len(t, lines, 2)
	assert.Equal(t, "a", string(lines[0]))
	assert.Equal(t, "b", string(lines[1]))

	lines = f.Feed([]byte("\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, "c", string(lines[0]))
}

func TestFramer_ReturnedLinesAreCopies(t *testing.T) {
	f := NewFramer(0)
	first := f.Feed([]byte("one\n"))
	f.Feed([]byte("two\n"))
	assert.Equal(t, "one", string(first[0]))
}

func TestFramer_OversizeLineDiscarded(t *testing.T) {
	f := NewFramer(8)
	assert.Empty(t, f.Feed([]byte("0123456789")))
	assert.Empty(t, f.Feed([]byte("more of the long line\nok")))

	lines := f.Feed([]byte("\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, "ok", string(lines[0]))
}

// oneByteReader returns a single byte per Read to force splits everywhere.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestReader_ByteAtATime(t *testing.T) {
	src := "{\"type\":\"log\",\"message\":\"hi\"}\n{\"type\":\"status\",\"port\":8765}\npartial"
	rd := NewReader(oneByteReader{strings.NewReader(src)})

	var got []string
	require.NoError(t, rd.Run(func(line []byte) { got = append(got, string(line)) }))

	assert.Equal(t, []string{
		`{"type":"log","message":"hi"}`,
		`{"type":"status","port":8765}`,
	}, got)
}
