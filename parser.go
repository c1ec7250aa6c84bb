package dsv

import (
	"io"

	"github.com/pkg/errors"
)

// HeaderCallback receives the first row when the caller treats it as a
// header. Returning false aborts the parse with ErrUserAborted.
type HeaderCallback func(fields [][]byte) bool

// RecordCallback receives every non-header row. Returning false aborts the
// parse with ErrUserAborted.
type RecordCallback func(fields [][]byte) bool

// parserState is one of the six states from spec.md §4.4.
type parserState int

const (
	stateRowStart parserState = iota
	stateFieldStart
	stateInRawField
	stateInEscapedField
	stateAfterField
	stateEOF
)

// controlByte reports whether b would be rejected inside an escaped field
// when AllowEscapedBinary is false.
func controlByte(b byte) bool {
	return b < 0x20 && b != '\t'
}

// Parser drives a Scanner and a set of compiled EquivalenceSets through the
// field/record state machine, enforcing column-count policy and emitting
// header/record callbacks and diagnostics as it goes (spec §4.4). A Parser
// may be reused serially across calls to Parse (each call resets all
// per-parse state) but must not be used concurrently (spec §5).
type Parser struct {
	cfg  *Config
	sink Sink

	recordDelim *EquivalenceSet
	fieldDelim  *EquivalenceSet
	opens       []*EquivalenceSet
	closes      []*EquivalenceSet

	scanner *Scanner

	line, column int
	row          [][]byte
	fieldBuf     []byte

	expected    int
	expectedSet bool
}

// NewParser compiles cfg's equivalence sets. Compilation failures are
// returned as *ConfigError.
func NewParser(cfg *Config, sink Sink) (*Parser, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.FieldColumns < ColumnCountPermissive {
		return nil, errors.WithStack(newConfigError(ErrInvalidColumnCount,
			"field column count must be -1, 0 or positive"))
	}

	recordDelim, err := NewEquivalenceSet(cfg.RecordDelimiters, false,
		cfg.RecordDelimExclusive || len(cfg.RecordDelimiters) > 1)
	if err != nil {
		return nil, err
	}
	fieldDelim, err := NewEquivalenceSet(cfg.FieldDelimiters, false,
		cfg.FieldDelimExclusive || len(cfg.FieldDelimiters) > 1)
	if err != nil {
		return nil, err
	}

	opens := make([]*EquivalenceSet, len(cfg.EscapePairs))
	closes := make([]*EquivalenceSet, len(cfg.EscapePairs))
	for i, pair := range cfg.EscapePairs {
		opens[i], err = NewEquivalenceSet(pair.Open, false, len(pair.Open) > 1)
		if err != nil {
			return nil, err
		}
		closeRepeat := len(pair.Close) == 1 && pair.Close[0].Repeat
		closes[i], err = NewEquivalenceSet(pair.Close, closeRepeat, len(pair.Close) > 1)
		if err != nil {
			return nil, err
		}
	}

	p := &Parser{
		cfg:         cfg,
		sink:        sink,
		recordDelim: recordDelim,
		fieldDelim:  fieldDelim,
		opens:       opens,
		closes:      closes,
	}
	sink.Log(Diagnostic{Code: CodeTrace, Level: LevelDebug, Params: []string{fastPathDescription()}})
	return p, nil
}

// minBufferSize sizes the Scanner's buffer floor comfortably past twice the
// longest sequence any configured equivalence set might match (spec §3
// ScannerBuffer invariant).
func (p *Parser) minBufferSize() int {
	longest := 1
	sets := append([]*EquivalenceSet{p.recordDelim, p.fieldDelim}, p.opens...)
	sets = append(sets, p.closes...)
	for _, es := range sets {
		if es.empty() {
			continue
		}
		if n := es.longestNormalized(); n > longest {
			longest = n
		}
	}
	return longest*2 + DefaultMinBufferSize
}

func (p *Parser) reset(r io.Reader, path string) {
	p.scanner = NewScanner(r, path, p.minBufferSize())
	p.line = 1
	p.column = 1
	p.row = p.row[:0]
	p.fieldBuf = p.fieldBuf[:0]
	p.expected = 0
	p.expectedSet = false
}

// Parse reads r to completion, invoking headerCB for the first row (if
// non-nil) and recordCB for every row after it.
func (p *Parser) Parse(r io.Reader, path string, headerCB HeaderCallback, recordCB RecordCallback) (Outcome, error) {
	p.reset(r, path)

	first := true
	for {
		eof, err := p.observeEOF()
		if err != nil {
			return outcomeFor(err), err
		}
		if eof {
			return OutcomeOK, nil
		}

		p.scanner.Pin()
		p.row = p.row[:0]
		err = p.scanRow()
		p.scanner.Unpin()
		if err != nil {
			return outcomeFor(err), err
		}

		if err := p.enforceColumnCount(len(p.row)); err != nil {
			p.sink.Log(Diagnostic{Code: CodeColumnCountError, Level: LevelError, Line: p.line})
			return OutcomeParseFailure, err
		}

		var cont bool
		switch {
		case first && headerCB != nil:
			cont = headerCB(p.row)
		case recordCB != nil:
			cont = recordCB(p.row)
		default:
			cont = true
		}
		first = false

		p.scanner.setLookahead(0)
		p.scanner.accept()

		if !cont {
			return OutcomeUserAborted, ErrUserAborted
		}
	}
}

// observeEOF reports whether the stream has no more bytes, without
// permanently consuming one if it does.
func (p *Parser) observeEOF() (bool, error) {
	b, ok, err := p.scanner.getc()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	p.scanner.putback(1)
	_ = b
	return false, nil
}

func (p *Parser) enforceColumnCount(actual int) error {
	switch p.cfg.FieldColumns {
	case ColumnCountPermissive:
		return nil
	case ColumnCountAuto:
		if !p.expectedSet {
			p.expected = actual
			p.expectedSet = true
			return nil
		}
		if actual != p.expected {
			return &ColumnCountError{Line: p.line, Expected: p.expected, Actual: actual}
		}
		return nil
	default:
		expected := int(p.cfg.FieldColumns)
		if actual != expected {
			return &ColumnCountError{Line: p.line, Expected: expected, Actual: actual}
		}
		return nil
	}
}

// scanRow scans fields until a record delimiter or EOF ends the row. A
// record delimiter matching before any field of the row has been scanned is
// a zero-field row (spec.md §8 "exactly one record-delimiter" boundary
// case): permissive configs emit it as an empty row, strict ones reject it.
func (p *Parser) scanRow() error {
	atRowStart := true
	for {
		field, recordEnded, zeroFieldRow, err := p.scanField(atRowStart)
		if err != nil {
			return err
		}
		if zeroFieldRow {
			return nil
		}
		p.row = append(p.row, field)
		atRowStart = false
		if recordEnded {
			return nil
		}
	}
}

// scanField implements S_FIELD_START and, depending on what it finds,
// dispatches into S_IN_RAW_FIELD or S_IN_ESCAPED_FIELD. atRowStart marks the
// first field of a row, the only position where a record-delimiter match
// means "zero-field row" rather than "this field is empty".
func (p *Parser) scanField(atRowStart bool) ([]byte, bool, bool, error) {
	for pairIx, open := range p.opens {
		n, err := matchEquivalenceSet(p.scanner, open)
		if err != nil {
			return nil, false, false, err
		}
		if n > 0 {
			p.advanceMatched(n)
			field, recordEnded, err := p.scanEscapedField(pairIx)
			return field, recordEnded, false, err
		}
	}

	if n, err := matchEquivalenceSet(p.scanner, p.recordDelim); err != nil {
		return nil, false, false, err
	} else if n > 0 {
		p.advanceMatched(n)
		if atRowStart {
			if p.cfg.RequireNonEmptyRows {
				p.sink.Log(Diagnostic{Code: CodeSyntaxError, Level: LevelError, Line: p.line, Column: p.column})
				return nil, false, false, &SyntaxError{
					Line:     p.line,
					ColStart: p.column,
					ColEnd:   p.column,
					Msg:      "empty record: row contains no fields",
				}
			}
			return nil, true, true, nil
		}
		return nil, true, false, nil
	}

	if n, err := matchEquivalenceSet(p.scanner, p.fieldDelim); err != nil {
		return nil, false, false, err
	} else if n > 0 {
		p.advanceMatched(n)
		return nil, false, false, nil
	}

	if p.scanner.eof() {
		return nil, true, false, nil
	}

	field, recordEnded, err := p.scanRawField()
	return field, recordEnded, false, err
}

// scanRawField implements S_IN_RAW_FIELD: record-delim beats field-delim
// beats accumulating one more raw byte, per field.
func (p *Parser) scanRawField() ([]byte, bool, error) {
	start := p.scanner.pos()

	for {
		if n, err := matchEquivalenceSet(p.scanner, p.recordDelim); err != nil {
			return nil, false, err
		} else if n > 0 {
			field := p.scanner.bufferSlice(start, p.scanner.pos()-n)
			p.advanceMatched(n)
			return field, true, nil
		}

		if n, err := matchEquivalenceSet(p.scanner, p.fieldDelim); err != nil {
			return nil, false, err
		} else if n > 0 {
			field := p.scanner.bufferSlice(start, p.scanner.pos()-n)
			p.advanceMatched(n)
			return field, false, nil
		}

		if p.scanner.eof() {
			return p.scanner.bufferSlice(start, p.scanner.pos()), true, nil
		}

		b, ok, err := p.scanner.getc()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return p.scanner.bufferSlice(start, p.scanner.pos()), true, nil
		}
		p.advanceByte(b)
	}
}

// scanEscapedField implements S_IN_ESCAPED_FIELD(pairIx): the open marker
// has already been consumed. The close set's own repeat flag is what makes
// a doubled close marker collapse into one literal occurrence instead of
// ending the field (spec §4.1, §4.4).
func (p *Parser) scanEscapedField(pairIx int) ([]byte, bool, error) {
	closeSet := p.closes[pairIx]
	closeLit := closeSet.descs[0].base
	p.fieldBuf = p.fieldBuf[:0]

	for {
		n, err := matchEquivalenceSet(p.scanner, closeSet)
		if err != nil {
			return nil, false, err
		}
		if n > 0 {
			p.advanceMatched(n)
			count := n / len(closeLit)
			literalOccurrences := count / 2
			for i := 0; i < literalOccurrences; i++ {
				p.fieldBuf = append(p.fieldBuf, closeLit...)
			}
			if count%2 == 1 {
				field := append([]byte(nil), p.fieldBuf...)
				return p.finishEscapedField(field)
			}
			continue
		}

		if p.scanner.eof() {
			p.sink.Log(Diagnostic{Code: CodeUnterminatedEscape, Level: LevelError, Line: p.line, Column: p.column})
			return nil, false, &UnterminatedEscapeError{Line: p.line, Col: p.column}
		}

		b, ok, err := p.scanner.getc()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			p.sink.Log(Diagnostic{Code: CodeUnterminatedEscape, Level: LevelError, Line: p.line, Column: p.column})
			return nil, false, &UnterminatedEscapeError{Line: p.line, Col: p.column}
		}
		if !p.cfg.AllowEscapedBinary && controlByte(b) {
			delimByte := false
			for _, specs := range [][]SequenceSpec{p.cfg.RecordDelimiters, p.cfg.FieldDelimiters} {
				for _, spec := range specs {
					for _, d := range spec.Bytes {
						if d == b {
							delimByte = true
						}
					}
				}
			}
			if !delimByte {
				p.sink.Log(Diagnostic{Code: CodeUnexpectedBinary, Level: LevelError, Line: p.line, Column: p.column})
				return nil, false, &UnexpectedBinaryError{Line: p.line, Col: p.column, Byte: b}
			}
		}
		p.advanceByte(b)
		p.fieldBuf = append(p.fieldBuf, b)
	}
}

// finishEscapedField implements S_AFTER_FIELD for a field that just closed
// its escape: the next thing in the stream must be a record delimiter, a
// field delimiter, or EOF.
func (p *Parser) finishEscapedField(field []byte) ([]byte, bool, error) {
	if n, err := matchEquivalenceSet(p.scanner, p.recordDelim); err != nil {
		return nil, false, err
	} else if n > 0 {
		p.advanceMatched(n)
		return field, true, nil
	}

	if n, err := matchEquivalenceSet(p.scanner, p.fieldDelim); err != nil {
		return nil, false, err
	} else if n > 0 {
		p.advanceMatched(n)
		return field, false, nil
	}

	if p.scanner.eof() {
		return field, true, nil
	}

	p.sink.Log(Diagnostic{Code: CodeSyntaxError, Level: LevelError, Line: p.line, Column: p.column})
	return nil, false, &SyntaxError{
		Line:     p.line,
		ColStart: p.column,
		ColEnd:   p.column,
		Msg:      "unexpected bytes after closing escape",
	}
}

// advanceByte updates line/column bookkeeping for one permanently consumed
// byte.
func (p *Parser) advanceByte(b byte) {
	if b == '\n' {
		p.line++
		p.column = 1
		return
	}
	p.column++
}

// advanceMatched updates line/column bookkeeping for the n bytes just
// consumed by a successful equivalence-set match.
func (p *Parser) advanceMatched(n int) {
	if n == 0 {
		return
	}
	matched := p.scanner.bufferSlice(p.scanner.pos()-n, p.scanner.pos())
	for _, b := range matched {
		p.advanceByte(b)
	}
}

// outcomeFor classifies err into the coarse Outcome a caller branches on.
func outcomeFor(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var ioErr *IoError
	if errors.As(err, &ioErr) {
		return OutcomeIoError
	}
	if errors.Is(err, ErrUserAborted) {
		return OutcomeUserAborted
	}
	if errors.Is(err, ErrOutOfMemory) {
		return OutcomeOutOfMemory
	}
	return OutcomeParseFailure
}
