package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"csvsample/internal/config"
	"csvsample/internal/sampler"
)

// makeCSV builds a CSV document with encoding/csv so quoting is correct.
func makeCSV(delim rune, header []string, rows [][]string) []byte {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	w.Comma = delim
	_ = w.Write(header)
	for _, r := range rows {
		_ = w.Write(r)
	}
	w.Flush()
	return b.Bytes()
}

func drain(t *testing.T, s *RecordSource) [][]string {
	t.Helper()
	var out [][]string
	for {
		rec, err := s.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, rec)
	}
}

func TestRecordSource_HeaderAndRows(t *testing.T) {
	t.Parallel()

	data := makeCSV(';', []string{" id ", "note"}, [][]string{
		{"1", "multi\nline"},
		{"2", "  padded  "},
	})
	s, err := NewRecordSource(bytes.NewReader(data), Options{Comma: ';', TrimSpace: true})
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	if got := strings.Join(s.Header(), "|"); got != "id|note" {
		t.Fatalf("header=%q", got)
	}
	rows := drain(t, s)
	if len(rows) != 2 {
		t.Fatalf("rows=%d; want 2", len(rows))
	}
	if rows[0][1] != "multi\nline" {
		t.Fatalf("quoted newline split the record: %q", rows[0])
	}
	if rows[1][1] != "padded" {
		t.Fatalf("TrimSpace not applied: %q", rows[1][1])
	}
}

func TestRecordSource_StripsBOM(t *testing.T) {
	t.Parallel()

	s, err := NewRecordSource(strings.NewReader("\uFEFF\"id\",name\n1,a\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	if s.Header()[0] != "id" {
		t.Fatalf("header[0]=%q; BOM not stripped", s.Header()[0])
	}
}

func TestRecordSource_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := NewRecordSource(strings.NewReader(""), DefaultOptions())
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err=%v; want ErrNoHeader", err)
	}
}

func TestRecordSource_SkipsMisalignedAndBlank(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n1,2,3\n\n   \n4,5\n6,7,8,9\n10,11,12\n"
	s, err := NewRecordSource(strings.NewReader(in), DefaultOptions())
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	var lines []int
	s.OnSkip(func(line int, err error) { lines = append(lines, line) })

	rows := drain(t, s)
	if len(rows) != 2 || rows[1][0] != "10" {
		t.Fatalf("rows=%v; want the two aligned rows", rows)
	}
	if s.Skipped() != 2 {
		t.Fatalf("skipped=%d; want 2", s.Skipped())
	}
	if len(lines) != 2 || lines[0] != 5 || lines[1] != 6 {
		t.Fatalf("skip lines=%v; want [5 6]", lines)
	}
}

func TestRecordSource_MalformedRows(t *testing.T) {
	t.Parallel()

	in := "a,b\n1,\"x\"y\n2,ok\n"

	t.Run("skipped when SkipMalformed", func(t *testing.T) {
		t.Parallel()
		s, err := NewRecordSource(strings.NewReader(in), Options{SkipMalformed: true})
		if err != nil {
			t.Fatalf("NewRecordSource: %v", err)
		}
		rows := drain(t, s)
		if len(rows) != 1 || rows[0][0] != "2" || s.Skipped() != 1 {
			t.Fatalf("rows=%v skipped=%d", rows, s.Skipped())
		}
	})

	t.Run("returned otherwise", func(t *testing.T) {
		t.Parallel()
		s, err := NewRecordSource(strings.NewReader(in), Options{})
		if err != nil {
			t.Fatalf("NewRecordSource: %v", err)
		}
		_, err = s.Next()
		var pe *csv.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("err=%v; want *csv.ParseError", err)
		}
	})

	// A stray quote opens a quoted field that runs to EOF, so the
	// following lines end up in one cell.
	t.Run("merged with LazyQuotes", func(t *testing.T) {
		t.Parallel()
		s, err := NewRecordSource(strings.NewReader(in), Options{LazyQuotes: true})
		if err != nil {
			t.Fatalf("NewRecordSource: %v", err)
		}
		rows := drain(t, s)
		if len(rows) != 1 || rows[0][0] != "1" || rows[0][1] != "x\"y\n2,ok\n" {
			t.Fatalf("rows=%q; want one row with the rest of the input in its second cell", rows)
		}
		if s.Skipped() != 0 {
			t.Fatalf("skipped=%d; want 0", s.Skipped())
		}
	})
}

func TestRecordSource_ReadErrorSurfaces(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("a,b\n1,2\n"), iotest.ErrReader(boom))
	s, err := NewRecordSource(r, DefaultOptions())
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("first row: %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, boom) {
		t.Fatalf("err=%v; want %v", err, boom)
	}
}

// TestRecordSource_AsSamplerSource wires the record source into the sampler
// and checks that a read failure becomes a SourceReadError.
func TestRecordSource_AsSamplerSource(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("id,v\n")
	for i := 0; i < 500; i++ {
		sb.WriteString("1,x\n")
	}

	s, err := NewRecordSource(strings.NewReader(sb.String()), DefaultOptions())
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	got, err := sampler.Sample[[]string](s, 50, sampler.NewRand(7))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("sample size=%d; want 50", len(got))
	}

	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader(sb.String()), iotest.ErrReader(boom))
	s, err = NewRecordSource(r, DefaultOptions())
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	got, err = sampler.Sample[[]string](s, 50, sampler.NewRand(7))
	var sre *sampler.SourceReadError
	if !errors.As(err, &sre) || !errors.Is(err, boom) || got != nil {
		t.Fatalf("got=%v err=%v; want nil and SourceReadError wrapping %v", got, err, boom)
	}
	if sre.Consumed != 500 {
		t.Fatalf("consumed=%d; want 500", sre.Consumed)
	}
}

func TestRecordSource_Stream(t *testing.T) {
	t.Parallel()

	s, err := NewRecordSource(strings.NewReader("a\n1\n2\n3\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	out := make(chan []string, 8)
	if err := s.Stream(context.Background(), out); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	close(out)
	var n int
	for range out {
		n++
	}
	if n != 3 {
		t.Fatalf("streamed %d rows; want 3", n)
	}
}

func TestRecordSource_StreamCanceled(t *testing.T) {
	t.Parallel()

	s, err := NewRecordSource(strings.NewReader("a\n1\n2\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Stream(ctx, make(chan []string)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v; want context.Canceled", err)
	}
}

func TestRecordSource_Scrub(t *testing.T) {
	t.Parallel()

	in := "name,state\n\"Acme \"in liquidation\"\",A\n"
	opt := Options{Scrub: []Rewrite{{From: ` "in liquidation""`, To: ` (in liquidation)"`}}}
	s, err := NewRecordSource(strings.NewReader(in), opt)
	if err != nil {
		t.Fatalf("NewRecordSource: %v", err)
	}
	rows := drain(t, s)
	if len(rows) != 1 || rows[0][0] != "Acme (in liquidation)" {
		t.Fatalf("rows=%q", rows)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	def := OptionsFromConfig(config.Options{})
	if def.Comma != DefaultOptions().Comma || def.LazyQuotes != DefaultOptions().LazyQuotes ||
		def.TrimSpace != DefaultOptions().TrimSpace || def.SkipMalformed != DefaultOptions().SkipMalformed || def.Scrub != nil {
		t.Fatalf("defaults=%+v", def)
	}

	got := OptionsFromConfig(config.Options{
		"comma":          "tab",
		"lazy_quotes":    false,
		"skip_malformed": false,
		"scrub":          []any{map[string]any{"from": "x", "to": "y"}},
	})
	if got.Comma != '\t' || got.LazyQuotes || got.SkipMalformed || !got.TrimSpace {
		t.Fatalf("options=%+v", got)
	}
	if len(got.Scrub) != 1 || got.Scrub[0] != (Rewrite{From: "x", To: "y"}) {
		t.Fatalf("scrub=%+v", got.Scrub)
	}
}

func BenchmarkRecordSource(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("station,kind,status,observed_on,active\n")
	for i := 0; i < 50_000; i++ {
		sb.WriteString("123456,A - Automatic,Not reported,07.10.2011,True\n")
	}
	data := sb.String()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := NewRecordSource(strings.NewReader(data), DefaultOptions())
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := s.Next(); err != nil {
				break
			}
		}
	}
}
