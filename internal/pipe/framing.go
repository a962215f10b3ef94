package pipe

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

const readChunk = 64 * 1024

// lineReader splits a byte stream into newline-delimited messages. One call to
// Read surfaces every complete line obtained from a single underlying read;
// partial trailing data is kept for the next call.
type lineReader struct {
	r       io.Reader
	buf     []byte
	pending []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, buf: make([]byte, readChunk)}
}

func (l *lineReader) Read() ([]string, error) {
	for {
		if lines := l.takeLines(); len(lines) > 0 {
			return lines, nil
		}
		n, err := l.r.Read(l.buf)
		if n > 0 {
			l.pending = append(l.pending, l.buf[:n]...)
			continue
		}
		if err == nil {
			continue
		}
		return nil, err
	}
}

func (l *lineReader) takeLines() []string {
	last := bytes.LastIndexByte(l.pending, '\n')
	if last < 0 {
		return nil
	}
	complete := l.pending[:last]
	var lines []string
	for line := range bytes.SplitSeq(complete, []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lines = append(lines, string(line))
	}
	rest := l.pending[last+1:]
	l.pending = append(l.pending[:0:0], rest...)
	return lines
}

// lineWriter appends a newline to each message and flushes synchronously.
type lineWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: bufio.NewWriter(w)}
}

func (l *lineWriter) Write(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.WriteString(text); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}
