// Package control implements the newline-delimited JSON channel between the
// supervisor and the worker process.
package control

import (
	"bytes"
	"errors"
	"io"
)

// MaxLineSize bounds a single record. Longer lines are discarded whole.
const MaxLineSize = 1 << 20

const readChunkSize = 4096

// Framer reassembles lines from arbitrary chunks of a byte stream.
// A line is only returned once its terminating '\n' has been seen.
type Framer struct {
	buf        []byte
	maxLine    int
	discarding bool
}

func NewFramer(maxLine int) *Framer {
	if maxLine <= 0 {
		maxLine = MaxLineSize
	}
	return &Framer{maxLine: maxLine}
}

// Feed appends chunk and returns every line it completed, without the
// trailing "\n" or "\r\n". Blank lines are skipped. Returned slices are
// owned by the caller.
func (f *Framer) Feed(chunk []byte) [][]byte {
	var lines [][]byte
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			f.buffer(chunk)
			break
		}
		f.buffer(chunk[:i])
		chunk = chunk[i+1:]

		if f.discarding {
			f.discarding = false
			f.buf = f.buf[:0]
			continue
		}
		line := bytes.TrimSuffix(f.buf, []byte{'\r'})
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, append([]byte(nil), line...))
		}
		f.buf = f.buf[:0]
	}
	return lines
}

// Pending reports how many bytes of an incomplete line are buffered.
func (f *Framer) Pending() int {
	return len(f.buf)
}

func (f *Framer) buffer(part []byte) {
	if f.discarding {
		return
	}
	if len(f.buf)+len(part) > f.maxLine {
		f.discarding = true
		f.buf = f.buf[:0]
		return
	}
	f.buf = append(f.buf, part...)
}

// -----------------------------------------------------------------------------
// Reader
// -----------------------------------------------------------------------------

// Reader drives a Framer from an io.Reader.
type Reader struct {
	r      io.Reader
	framer *Framer
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, framer: NewFramer(MaxLineSize)}
}

// Run calls fn for every complete line until the stream ends. An incomplete
// trailing line at EOF is dropped. Returns nil on EOF.
func (rd *Reader) Run(fn func(line []byte)) error {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := rd.r.Read(chunk)
		if n > 0 {
			for _, line := range rd.framer.Feed(chunk[:n]) {
				fn(line)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
	}
}
