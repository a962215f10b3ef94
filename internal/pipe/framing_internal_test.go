package pipe

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks = c.chunks[1:]
	return n, nil
}

func TestLineReaderBatchesOneUnderlyingRead(t *testing.T) {
	r := newLineReader(&chunkReader{chunks: [][]byte{
		[]byte("first\n\nsecond\r\nthi"),
		[]byte("rd\n"),
	}})

	got, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := []string{"first", "second"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("first batch = %q, want %q", got, want)
	}

	got, err = r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := []string{"third"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("second batch = %q, want %q", got, want)
	}

	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestLineReaderSkipsBlankOnlyReads(t *testing.T) {
	r := newLineReader(&chunkReader{chunks: [][]byte{
		[]byte("\n\n"),
		[]byte("payload\n"),
	}})
	got, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 || got[0] != "payload" {
		t.Fatalf("unexpected lines %q", got)
	}
}

func TestLineWriterTerminatesAndFlushes(t *testing.T) {
	var buf bytes.Buffer
	w := newLineWriter(&buf)
	if err := w.Write(`{"a":1}`); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "{\"a\":1}\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestBrokenWrapsSentinel(t *testing.T) {
	err := broken("asc_rx", "read", io.EOF)
	if !errors.Is(err, ErrBrokenChannel) || !errors.Is(err, io.EOF) {
		t.Fatalf("expected both ErrBrokenChannel and io.EOF in %v", err)
	}
}
