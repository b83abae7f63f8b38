// Package csv turns delimited text into records. RecordSource reads the
// header eagerly and then yields data rows one at a time, which makes it a
// sampler.Source for the schema probe and a row producer for the loader.
// Nothing is buffered beyond the current record.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when the input holds no header row.
var ErrNoHeader = errors.New("csv: input has no header row")

// RecordSource yields data records after the header. It is not safe for
// concurrent use.
type RecordSource struct {
	cr            *csv.Reader
	header        []string
	trim          bool
	skipMalformed bool
	skipped       int64
	onSkip        func(line int, err error)
}

// NewRecordSource reads the header from r. A leading UTF-8 BOM is dropped.
func NewRecordSource(r io.Reader, opt Options) (*RecordSource, error) {
	cr := csv.NewReader(withRewrites(skipBOM(r), opt.Scrub))
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1 // width is checked against the header below

	h, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range h {
		h[i] = strings.TrimSpace(h[i])
	}

	return &RecordSource{
		cr:            cr,
		header:        h,
		trim:          opt.TrimSpace,
		skipMalformed: opt.SkipMalformed,
	}, nil
}

// Header returns the header row.
func (s *RecordSource) Header() []string { return s.header }

// Skipped reports how many malformed or misaligned rows were dropped.
func (s *RecordSource) Skipped() int64 { return s.skipped }

// OnSkip installs a callback for every dropped row. line is the 1-based
// line where the row starts.
func (s *RecordSource) OnSkip(fn func(line int, err error)) { s.onSkip = fn }

// Next returns the next data record, or io.EOF at the end of input. Blank
// lines are ignored. Rows whose width differs from the header are dropped
// and counted; so are parse errors when SkipMalformed is set. Any other
// error from the underlying reader is returned unchanged.
func (s *RecordSource) Next() ([]string, error) {
	for {
		rec, err := s.cr.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) && s.skipMalformed {
				s.skip(pe.StartLine, err)
				continue
			}
			return nil, err
		}

		if len(rec) == 1 && len(s.header) > 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(s.header) {
			line, _ := s.cr.FieldPos(0)
			s.skip(line, fmt.Errorf("incorrect number of fields: expected %d, got %d", len(s.header), len(rec)))
			continue
		}
		if s.trim {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
		}
		return rec, nil
	}
}

func (s *RecordSource) skip(line int, err error) {
	s.skipped++
	if s.onSkip != nil {
		s.onSkip(line, err)
	}
}

// Stream sends every remaining record to out until EOF, an error, or ctx is
// done. The caller closes out.
func (s *RecordSource) Stream(ctx context.Context, out chan<- []string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
