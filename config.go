package dsv

// ColumnCountPolicy controls how the Parser enforces field-count
// consistency across rows (spec §4.4).
type ColumnCountPolicy int

const (
	// ColumnCountAuto binds the expected column count to the first row
	// delivered; later rows must match it exactly or parsing fails with
	// a ColumnCountError.
	ColumnCountAuto ColumnCountPolicy = 0
	// ColumnCountPermissive allows any number of fields per row.
	ColumnCountPermissive ColumnCountPolicy = -1
)

// ColumnCountExact returns the policy requiring exactly n fields per row.
func ColumnCountExact(n int) ColumnCountPolicy { return ColumnCountPolicy(n) }

// NewlineMode is a convenience that expands into a record-delimiter
// EquivalenceSet (spec §6).
type NewlineMode int

const (
	NewlinePermissive NewlineMode = iota
	NewlineLFStrict
	NewlineCRLFStrict
)

// EscapePairSpec describes one open/close EquivalenceSet pair a field may
// be bracketed with, tried in configured order (spec §4.4).
type EscapePairSpec struct {
	Open  []SequenceSpec
	Close []SequenceSpec
}

// Config is the contract a caller builds to configure a Parser (spec §6).
// There are no getter/setter methods by design: the public config surface
// this core consumes is a plain value, not a stateful object (spec §1 Out
// of scope), matching the teacher's Reader exposing Comma/Comment/
// FieldsPerRecord etc. as public fields rather than accessors.
type Config struct {
	RecordDelimiters []SequenceSpec
	FieldDelimiters  []SequenceSpec
	EscapePairs      []EscapePairSpec
	FieldColumns     ColumnCountPolicy

	// AllowEscapedBinary permits any byte value, including control
	// bytes, inside an escaped field. When false, a control byte other
	// than the configured delimiters inside an escaped field is reported
	// as UnexpectedBinaryError.
	AllowEscapedBinary bool

	// FieldDelimExclusive and RecordDelimExclusive force every match of
	// the respective set through the compiled dispatch table even when
	// it has exactly one member (see Open Question #2 in SPEC_FULL.md).
	FieldDelimExclusive  bool
	RecordDelimExclusive bool

	// RequireNonEmptyRows rejects a record consisting of nothing but a
	// record delimiter with a SyntaxError instead of producing a
	// zero-field row (spec.md §8 "exactly one record-delimiter" boundary
	// case). The permissive default leaves this false; strict RFC4180
	// configs set it true.
	RequireNonEmptyRows bool
}

// NewConfig returns the permissive RFC4180-compatible default: comma field
// delimiter, any of CRLF/LF/CR as a record delimiter, doubled-quote
// escaping, and column counts bound from the first row. Matches
// dsv_parser_create's default (SPEC_FULL.md Open Question #1).
func NewConfig() *Config {
	return &Config{
		RecordDelimiters: newlineSequences(NewlinePermissive),
		FieldDelimiters:  []SequenceSpec{{Bytes: []byte(",")}},
		EscapePairs: []EscapePairSpec{
			{
				Open:  []SequenceSpec{{Bytes: []byte("\"")}},
				Close: []SequenceSpec{{Bytes: []byte("\""), Repeat: true}},
			},
		},
		FieldColumns:         ColumnCountAuto,
		RecordDelimExclusive: true,
	}
}

// NewRFC4180StrictConfig mirrors dsv_parser_create_RFC4180_strict: only
// "\r\n" terminates a record.
func NewRFC4180StrictConfig() *Config {
	c := NewConfig()
	c.RecordDelimiters = newlineSequences(NewlineCRLFStrict)
	c.RecordDelimExclusive = false
	c.RequireNonEmptyRows = true
	return c
}

// NewRFC4180PermissiveConfig mirrors dsv_parser_create_RFC4180_permissive.
func NewRFC4180PermissiveConfig() *Config {
	return NewConfig()
}

func newlineSequences(mode NewlineMode) []SequenceSpec {
	switch mode {
	case NewlineLFStrict:
		return []SequenceSpec{{Bytes: []byte("\n")}}
	case NewlineCRLFStrict:
		return []SequenceSpec{{Bytes: []byte("\r\n")}}
	default:
		return []SequenceSpec{
			{Bytes: []byte("\r\n")},
			{Bytes: []byte("\n")},
			{Bytes: []byte("\r")},
		}
	}
}

// AddEscapePair appends another open/close escape pair, tried after any
// already configured.
func (c *Config) AddEscapePair(open, close []byte, closeRepeat bool) {
	c.EscapePairs = append(c.EscapePairs, EscapePairSpec{
		Open:  []SequenceSpec{{Bytes: open}},
		Close: []SequenceSpec{{Bytes: close, Repeat: closeRepeat}},
	})
}
