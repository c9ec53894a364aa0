package checker

// reader.go turns raw file bytes into logical records.
//
// The upstream export quotes cells that contain commas or line breaks, so
// record boundaries cannot be found by splitting on terminator bytes. The
// Reader runs a two-state scan (inside/outside a quoted span) over the
// decoded text and treats CRLF or bare LF as a record boundary only in
// the unquoted state. Every terminator increments the physical line
// counter regardless of quoting, which is what lets each record report
// the real file lines it spans.

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// EncodingShiftJIS is the default input encoding. The upstream system
// exports cp932, which x/text serves under its WHATWG name.
const EncodingShiftJIS = "shift_jis"

// DefaultMaxLines caps the physical line count of a single file. The
// tool is scoped to routine daily exports, not bulk archives.
const DefaultMaxLines = 50000

// ReaderConfig configures a Reader. The zero value decodes Shift_JIS
// and applies DefaultMaxLines.
type ReaderConfig struct {
	// Encoding is an IANA/WHATWG encoding name, e.g. "shift_jis" or
	// "utf-8". Empty selects EncodingShiftJIS.
	Encoding string
	// MaxLines is the physical line limit. Zero selects DefaultMaxLines;
	// negative disables the limit.
	MaxLines int
}

// ParseError is a structural failure at a specific physical line:
// an unterminated quoted cell, undecodable input, or the line limit.
// It is fatal for the unparsed tail of the file only; records emitted
// before the failure remain valid.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Reader produces the sequence of logical records in a file, one call to
// Next at a time. A Reader is single-use and must be consumed left to
// right; to restart, construct a new Reader over the same bytes.
type Reader struct {
	text     string
	pos      int
	line     int
	badPos   int // byte offset of the first undecodable input, -1 if none
	maxLines int
	err      error
}

// NewReader decodes raw bytes with the configured encoding and returns a
// Reader positioned at the first record. Decoding is a pure in-memory
// transformation; nothing is written anywhere.
func NewReader(raw []byte, cfg ReaderConfig) (*Reader, error) {
	name := cfg.Encoding
	if name == "" {
		name = EncodingShiftJIS
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	text := strings.TrimPrefix(string(decoded), "\uFEFF")

	maxLines := cfg.MaxLines
	if maxLines == 0 {
		maxLines = DefaultMaxLines
	}

	return &Reader{
		text: text,
		line: 1,
		// x/text decoders substitute U+FFFD for bytes the source encoding
		// cannot represent; cp932 itself has no U+FFFD, so its presence
		// marks the first undecodable byte.
		badPos:   strings.IndexRune(text, utf8.RuneError),
		maxLines: maxLines,
	}, nil
}

// Next returns the next logical record. It returns io.EOF after the last
// record and a *ParseError on structural failure. Once an error has been
// returned, every subsequent call returns the same error.
func (r *Reader) Next() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}
	if r.pos >= len(r.text) {
		r.err = io.EOF
		return Record{}, r.err
	}

	startLine := r.line
	var cells []string
	var cell strings.Builder
	inQuotes := false
	quotedCell := false

	for r.pos < len(r.text) {
		if r.pos == r.badPos {
			return Record{}, r.fail("input is not valid for the configured encoding")
		}
		c := r.text[r.pos]

		if inQuotes {
			switch c {
			case '"':
				if r.pos+1 < len(r.text) && r.text[r.pos+1] == '"' {
					cell.WriteByte('"')
					r.pos += 2
					continue
				}
				inQuotes = false
				r.pos++
			case '\n':
				// Terminator inside a quoted span: data, but it still
				// advances the physical line counter.
				if err := r.bumpLine(1); err != nil {
					return Record{}, err
				}
				cell.WriteByte('\n')
				r.pos++
			default:
				cell.WriteByte(c)
				r.pos++
			}
			continue
		}

		switch c {
		case '"':
			if cell.Len() == 0 && !quotedCell {
				inQuotes = true
				quotedCell = true
				r.pos++
			} else {
				// Lazy quote: a quote mid-cell is literal data, matching
				// the leniency of the upstream export's own tooling.
				cell.WriteByte('"')
				r.pos++
			}
		case ',':
			cells = append(cells, cell.String())
			cell.Reset()
			quotedCell = false
			r.pos++
		case '\r':
			if r.pos+1 < len(r.text) && r.text[r.pos+1] == '\n' {
				endLine := r.line
				if err := r.bumpLine(2); err != nil {
					return Record{}, err
				}
				r.pos += 2
				return r.emit(cells, cell.String(), startLine, endLine), nil
			}
			// A bare CR is not a record terminator; keep it as data.
			cell.WriteByte('\r')
			r.pos++
		case '\n':
			endLine := r.line
			if err := r.bumpLine(1); err != nil {
				return Record{}, err
			}
			r.pos++
			return r.emit(cells, cell.String(), startLine, endLine), nil
		default:
			cell.WriteByte(c)
			r.pos++
		}
	}

	if inQuotes {
		return Record{}, r.fail("unterminated quoted cell at end of input")
	}

	// Final record without a trailing terminator.
	return r.emit(cells, cell.String(), startLine, r.line), nil
}

// ReadAll consumes the remaining records. The error is io.EOF-free: nil
// means the whole input parsed, a *ParseError means the tail did not.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

func (r *Reader) emit(cells []string, last string, startLine, endLine int) Record {
	return Record{
		Cells:     append(cells, last),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// bumpLine advances the physical line counter across a terminator of the
// given byte width. The line limit only trips when content follows the
// terminator: a trailing newline on the last permitted line is fine.
func (r *Reader) bumpLine(width int) error {
	r.line++
	if r.maxLines > 0 && r.line > r.maxLines && r.pos+width < len(r.text) {
		return r.fail(fmt.Sprintf("file exceeds the %d physical line limit", r.maxLines))
	}
	return nil
}

func (r *Reader) fail(reason string) error {
	r.err = &ParseError{Line: r.line, Reason: reason}
	return r.err
}
