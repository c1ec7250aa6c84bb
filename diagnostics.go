package dsv

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a Diagnostic.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Code identifies the kind of condition a Diagnostic reports. The set below
// isn't exhaustive of every fault in errors.go -- it covers conditions worth
// surfacing through the diagnostic channel even when they don't abort the
// parse (spec §4.5).
type Code int

const (
	CodeSyntaxError Code = iota
	CodeColumnCountError
	CodeUnexpectedBinary
	CodeUnterminatedEscape
	// CodeTrace carries ambient, non-fault information (e.g. which scan
	// fast path was selected) that has no home in the fault taxonomy.
	CodeTrace
)

func (c Code) String() string {
	switch c {
	case CodeSyntaxError:
		return "syntax_error"
	case CodeColumnCountError:
		return "column_count_error"
	case CodeUnexpectedBinary:
		return "unexpected_binary"
	case CodeUnterminatedEscape:
		return "unterminated_escape"
	case CodeTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// Diagnostic is one entry delivered through a Sink. Line and Column are
// 1-based and zero when not applicable (e.g. CodeTrace).
type Diagnostic struct {
	Code   Code
	Level  Level
	Line   int
	Column int
	Params []string
}

// Sink receives diagnostics as the Parser produces them. Log is called
// synchronously from within NewParser (the CodeTrace entry) and Parse, in
// the same order the diagnostics were raised relative to header/record
// callback invocations (spec §4.5).
type Sink interface {
	Log(d Diagnostic)
}

// LevelMask filters which Levels reach a Sink.
type LevelMask uint8

const (
	MaskError LevelMask = 1 << iota
	MaskWarning
	MaskInfo
	MaskDebug
)

// MaskAll passes every Level through.
const MaskAll = MaskError | MaskWarning | MaskInfo | MaskDebug

func (m LevelMask) allows(l Level) bool {
	switch l {
	case LevelError:
		return m&MaskError != 0
	case LevelWarning:
		return m&MaskWarning != 0
	case LevelInfo:
		return m&MaskInfo != 0
	case LevelDebug:
		return m&MaskDebug != 0
	default:
		return false
	}
}

// NopSink discards every diagnostic. It's the zero-configuration default
// for callers that only care about returned errors.
type NopSink struct{}

func (NopSink) Log(Diagnostic) {}

// CollectingSink accumulates diagnostics for later inspection, primarily
// useful in tests that want to assert on what was logged without wiring a
// real logger.
type CollectingSink struct {
	mu   sync.RWMutex
	logs []Diagnostic
}

func (s *CollectingSink) Log(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, d)
}

// Diagnostics returns a defensive copy of everything logged so far.
func (s *CollectingSink) Diagnostics() []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Diagnostic, len(s.logs))
	copy(out, s.logs)
	return out
}

// LogrusSink renders diagnostics through a *logrus.Logger, one structured
// entry per Diagnostic.
type LogrusSink struct {
	Logger *logrus.Logger
	Mask   LevelMask
}

// NewLogrusSink returns a LogrusSink over logger (or a fresh default
// logger, if nil) that passes everything but debug-level trace entries.
func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogrusSink{Logger: logger, Mask: MaskError | MaskWarning | MaskInfo}
}

func (s *LogrusSink) Log(d Diagnostic) {
	if !s.Mask.allows(d.Level) {
		return
	}
	entry := s.Logger.WithFields(logrus.Fields{
		"code":   d.Code.String(),
		"line":   d.Line,
		"column": d.Column,
		"params": d.Params,
	})
	switch d.Level {
	case LevelError:
		entry.Error(d.Code.String())
	case LevelWarning:
		entry.Warn(d.Code.String())
	case LevelInfo:
		entry.Info(d.Code.String())
	case LevelDebug:
		entry.Debug(d.Code.String())
	}
}
