package dsv

import (
	"io"
	"sync"
)

// Reader is an encoding/csv-shaped convenience wrapper around Parser,
// offering pull-based Read/ReadAll instead of Parser's push-based
// callbacks. Grounded directly on the teacher's Reader in
// _examples/raceordie690-simdcsv/simdcsv.go: same exported-field
// configuration style, same Read/ReadAll pair, same sync.Mutex-guarded
// reuse -- but driving a single in-process Parser goroutine instead of the
// teacher's multi-stage SIMD pipeline, since this core's concurrency model
// is single-threaded cooperative (spec §5).
type Reader struct {
	sync.Mutex

	// Config is consulted once, at the first call to Read or ReadAll;
	// changes after that point have no effect. Defaults to NewConfig().
	Config *Config

	// Sink receives diagnostics raised while parsing. Defaults to
	// NopSink.
	Sink Sink

	// Header, when true, treats the first row as a header: it is
	// captured into HeaderFields instead of being returned from Read.
	Header bool

	r    io.Reader
	path string

	parser *Parser
	rows   chan [][]byte
	errCh  chan error
	header [][]byte
}

// NewReader returns a Reader consuming r, configured with the permissive
// RFC4180-compatible default (see NewConfig).
func NewReader(r io.Reader) *Reader {
	return &Reader{Config: NewConfig(), r: r}
}

// NewReaderPath is NewReader with a path recorded for *IoError context.
func NewReaderPath(r io.Reader, path string) *Reader {
	rd := NewReader(r)
	rd.path = path
	return rd
}

// HeaderFields returns the header row captured while parsing, once Read has
// returned at least once with Header set to true.
func (rd *Reader) HeaderFields() [][]byte {
	rd.Lock()
	defer rd.Unlock()
	return rd.header
}

// start lazily compiles the configured Parser and launches the single
// goroutine that drives Parser.Parse, turning its push-based callbacks
// into a channel Read can pull from one row at a time.
func (rd *Reader) start() {
	rd.Lock()
	defer rd.Unlock()
	if rd.parser != nil {
		return
	}

	cfg := rd.Config
	if cfg == nil {
		cfg = NewConfig()
	}
	sink := rd.Sink
	if sink == nil {
		sink = NopSink{}
	}

	rd.rows = make(chan [][]byte)
	rd.errCh = make(chan error, 1)

	parser, err := NewParser(cfg, sink)
	if err != nil {
		rd.errCh <- err
		close(rd.rows)
		return
	}
	rd.parser = parser

	go func() {
		defer close(rd.rows)

		var headerCB HeaderCallback
		if rd.Header {
			headerCB = func(fields [][]byte) bool {
				rd.Lock()
				rd.header = copyRow(fields)
				rd.Unlock()
				return true
			}
		}
		recordCB := func(fields [][]byte) bool {
			rd.rows <- copyRow(fields)
			return true
		}

		if _, err := parser.Parse(rd.r, rd.path, headerCB, recordCB); err != nil {
			rd.errCh <- err
		}
	}()
}

func copyRow(fields [][]byte) [][]byte {
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// Read returns the next record, with its bytes copied out of the Parser's
// internal buffer (safe to retain past the call, unlike the zero-copy
// slices Parser hands its own callbacks directly). Returns io.EOF once the
// stream is exhausted.
func (rd *Reader) Read() ([][]byte, error) {
	rd.start()
	select {
	case row, ok := <-rd.rows:
		if !ok {
			select {
			case err := <-rd.errCh:
				return nil, err
			default:
				return nil, io.EOF
			}
		}
		return row, nil
	case err := <-rd.errCh:
		return nil, err
	}
}

// ReadAll reads every remaining record into memory.
func (rd *Reader) ReadAll() ([][][]byte, error) {
	var out [][][]byte
	for {
		row, err := rd.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
}
