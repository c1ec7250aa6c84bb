// Package dsv parses delimiter-separated-value streams: a generalization of
// RFC 4180 CSV with configurable, possibly multi-byte field/record
// delimiters and escape pairs.
//
// The package is organized the way libdsv's scan/match core is organized:
// an equivalent byte-sequence compiler (bytesequence.go, dispatch.go) feeds
// a compiled EquivalenceSet (equivset.go); a buffered Scanner (scanner.go)
// exposes a token/lookahead/putback cursor over an io.Reader; a Matcher
// (matcher.go) runs longest-prefix matches of an EquivalenceSet against the
// Scanner; and a Parser (parser.go) drives all three through a small state
// machine, emitting header/record callbacks and diagnostics (diagnostics.go)
// as it goes. Reader (reader.go) wraps Parser in an encoding/csv-shaped
// convenience API.
package dsv
