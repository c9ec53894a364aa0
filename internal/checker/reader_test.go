package checker

import (
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestReaderRecordBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Record
	}{
		{
			name:  "LF terminated rows",
			input: "h1,h2\na,b\nc,d\n",
			want: []Record{
				{Cells: []string{"h1", "h2"}, StartLine: 1, EndLine: 1},
				{Cells: []string{"a", "b"}, StartLine: 2, EndLine: 2},
				{Cells: []string{"c", "d"}, StartLine: 3, EndLine: 3},
			},
		},
		{
			name:  "CRLF terminated rows",
			input: "h1,h2\r\na,b\r\n",
			want: []Record{
				{Cells: []string{"h1", "h2"}, StartLine: 1, EndLine: 1},
				{Cells: []string{"a", "b"}, StartLine: 2, EndLine: 2},
			},
		},
		{
			name:  "no trailing terminator on last row",
			input: "h1,h2\na,b",
			want: []Record{
				{Cells: []string{"h1", "h2"}, StartLine: 1, EndLine: 1},
				{Cells: []string{"a", "b"}, StartLine: 2, EndLine: 2},
			},
		},
		{
			name:  "embedded CRLF in quoted cell is one record",
			input: "h1,h2\na,\"x\r\ny\"\nb,c\n",
			want: []Record{
				{Cells: []string{"h1", "h2"}, StartLine: 1, EndLine: 1},
				{Cells: []string{"a", "x\r\ny"}, StartLine: 2, EndLine: 3},
				{Cells: []string{"b", "c"}, StartLine: 4, EndLine: 4},
			},
		},
		{
			name:  "two embedded LFs span three lines",
			input: "h\n\"a\nb\nc\",z\n",
			want: []Record{
				{Cells: []string{"h"}, StartLine: 1, EndLine: 1},
				{Cells: []string{"a\nb\nc", "z"}, StartLine: 2, EndLine: 4},
			},
		},
		{
			name:  "escaped quotes inside quoted cell",
			input: "\"say \"\"hi\"\"\",b\n",
			want: []Record{
				{Cells: []string{`say "hi"`, "b"}, StartLine: 1, EndLine: 1},
			},
		},
		{
			name:  "quoted comma stays in cell",
			input: "\"a,b\",c\n",
			want: []Record{
				{Cells: []string{"a,b", "c"}, StartLine: 1, EndLine: 1},
			},
		},
		{
			name:  "lazy quote mid cell is literal",
			input: "ab\"cd,e\n",
			want: []Record{
				{Cells: []string{`ab"cd`, "e"}, StartLine: 1, EndLine: 1},
			},
		},
		{
			name:  "bare CR is data not a terminator",
			input: "a\rb,c\n",
			want: []Record{
				{Cells: []string{"a\rb", "c"}, StartLine: 1, EndLine: 1},
			},
		},
		{
			name:  "blank line is a single empty cell",
			input: "h\n\nx\n",
			want: []Record{
				{Cells: []string{"h"}, StartLine: 1, EndLine: 1},
				{Cells: []string{""}, StartLine: 2, EndLine: 2},
				{Cells: []string{"x"}, StartLine: 3, EndLine: 3},
			},
		},
		{
			name:  "empty input yields no records",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader([]byte(tt.input), ReaderConfig{})
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			got, err := r.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("records = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReaderLineSpansPartitionFile(t *testing.T) {
	// Every physical line must belong to exactly one record's span.
	input := "h1,h2\na,\"x\r\ny\"\n\"p\nq\nr\",s\nlast,row\n"
	r, err := NewReader([]byte(input), ReaderConfig{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	nextLine := 1
	total := 0
	for i, rec := range records {
		if rec.StartLine != nextLine {
			t.Errorf("record %d starts at line %d, want %d (gap or overlap)", i, rec.StartLine, nextLine)
		}
		if rec.EndLine < rec.StartLine {
			t.Errorf("record %d has EndLine %d before StartLine %d", i, rec.EndLine, rec.StartLine)
		}
		total += rec.EndLine - rec.StartLine + 1
		nextLine = rec.EndLine + 1
	}

	const physicalLines = 7
	if total != physicalLines {
		t.Errorf("sum of spans = %d, want %d", total, physicalLines)
	}
}

func TestReaderUnterminatedQuote(t *testing.T) {
	input := "h1,h2\na,b\nc,\"oops"
	r, err := NewReader([]byte(input), ReaderConfig{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	records, err := r.ReadAll()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("ReadAll error = %v, want *ParseError", err)
	}
	if pe.Line != 3 {
		t.Errorf("ParseError.Line = %d, want 3", pe.Line)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records before the failure, want 2", len(records))
	}
	if records[1].Cells[0] != "a" {
		t.Errorf("records before the failure should be intact, got %+v", records[1])
	}

	// The error is sticky.
	if _, err := r.Next(); !errors.As(err, &pe) {
		t.Errorf("Next after failure = %v, want the same *ParseError", err)
	}
}

func TestReaderShiftJISDecoding(t *testing.T) {
	// 0x93 0x58 is 店 in cp932.
	raw := append([]byte("h\n"), 0x93, 0x58)
	raw = append(raw, []byte(",1\n")...)

	r, err := NewReader(raw, ReaderConfig{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if got := records[1].Cells[0]; got != "店" {
		t.Errorf("decoded cell = %q, want %q", got, "店")
	}
}

func TestReaderUndecodableInput(t *testing.T) {
	// 0xFF is not a valid cp932 byte; the failure must name line 2 and
	// leave the header record intact.
	raw := append([]byte("h1,h2\na,"), 0xFF)
	raw = append(raw, '\n')

	r, err := NewReader(raw, ReaderConfig{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	records, err := r.ReadAll()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("ReadAll error = %v, want *ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("ParseError.Line = %d, want 2", pe.Line)
	}
	if len(records) != 1 {
		t.Errorf("got %d records before the failure, want 1", len(records))
	}
}

func TestReaderLineLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLines int
		wantErr  bool
	}{
		{name: "content past the limit fails", input: "h\na\nb\n", maxLines: 2, wantErr: true},
		{name: "trailing newline on last line is fine", input: "h\na\n", maxLines: 2, wantErr: false},
		{name: "negative disables the limit", input: "h\na\nb\nc\nd\n", maxLines: -1, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader([]byte(tt.input), ReaderConfig{MaxLines: tt.maxLines})
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			_, err = r.ReadAll()
			var pe *ParseError
			if tt.wantErr {
				if !errors.As(err, &pe) {
					t.Fatalf("ReadAll error = %v, want *ParseError", err)
				}
			} else if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
		})
	}
}

func TestReaderUnknownEncoding(t *testing.T) {
	if _, err := NewReader(nil, ReaderConfig{Encoding: "no-such-charset"}); err == nil {
		t.Fatal("expected an error for an unknown encoding name")
	}
}

func TestReaderRestartFromSameBytes(t *testing.T) {
	input := []byte("h\na,\"x\ny\"\nb,c\n")

	read := func() []Record {
		r, err := NewReader(input, ReaderConfig{})
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		records, err := r.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		return records
	}

	first := read()
	second := read()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-reading the same bytes produced different records:\n%+v\n%+v", first, second)
	}
}

func TestReaderNextAfterEOF(t *testing.T) {
	r, err := NewReader([]byte("a\n"), ReaderConfig{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := r.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("Next after exhaustion = %v, want io.EOF", err)
		}
	}
}
