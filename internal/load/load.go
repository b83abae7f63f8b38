// Package load streams a CSV file into a database table in parts.
//
// Three stages run under one errgroup and share its context:
//
//	reader  (RecordSource.Stream)    → raw records
//	coerce  (per schema column type) → driver values
//	loader  (storage.LoadBatches)    → Repository.CopyFrom per part
//
// Channels between stages are bounded by runtime.channel_buffer, so memory
// stays around O(batch_size + channel_buffer) rows. A row whose cells do not
// fit the schema is dropped and counted; the load carries on. Any other
// failure cancels every stage.
package load

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"csvsample/internal/config"
	"csvsample/internal/datasource"
	"csvsample/internal/metrics"
	csvparser "csvsample/internal/parser/csv"
	"csvsample/internal/sampler"
	"csvsample/internal/schema"
	"csvsample/internal/storage"
)

// maxDropMessages caps how many coercion failures are logged verbatim.
const maxDropMessages = 5

// Summary counts what one load did with the file's data rows.
type Summary struct {
	// Read is the number of well-formed records that reached coercion.
	Read int64
	// ParseSkipped is the number of rows the CSV reader dropped.
	ParseSkipped int64
	// Dropped is the number of records that failed coercion.
	Dropped  int64
	Inserted int64
	// Parts is the number of batches written.
	Parts int64
}

// Run loads the job's source into repo using s for column names and types.
//
// With storage.db.auto_create_table the table is created first. REPLACE
// empties the table before the first part; APPEND keeps existing rows.
// A header whose width differs from s fails with schema.ErrColumnMismatch
// before anything is written. A failed read mid-file is returned as
// *sampler.SourceReadError.
func Run(ctx context.Context, j config.Job, s schema.Schema, repo storage.Repository) (sum Summary, err error) {
	j = j.WithDefaults()
	start := time.Now()
	defer func() { metrics.RecordStep(j.Job, "load", err, time.Since(start)) }()

	if len(s) == 0 {
		return sum, fmt.Errorf("load: empty schema")
	}
	if repo == nil {
		return sum, fmt.Errorf("load: nil repository")
	}

	src, err := datasource.New(j.Source.Location(), datasource.Options{
		Folder:      j.Source.File.Folder,
		InsecureTLS: j.Source.HTTP.InsecureTLS,
		MaxRetries:  j.Source.HTTP.MaxRetries,
	})
	if err != nil {
		return sum, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return sum, err
	}
	defer rc.Close()

	rs, err := csvparser.NewRecordSource(rc, csvparser.OptionsFromConfig(j.Parser.Options))
	if err != nil {
		return sum, err
	}
	if got := len(rs.Header()); got != len(s) {
		return sum, fmt.Errorf("%w: file has %d columns, schema has %d", schema.ErrColumnMismatch, got, len(s))
	}
	rs.OnSkip(func(line int, err error) {
		log.Printf("load: skip line=%d err=%v", line, err)
	})

	table := j.Storage.DB.Table
	if j.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, j.Storage.Kind, repo, table, s); err != nil {
			return sum, err
		}
	}
	if j.InsertMethod == config.InsertMethodReplace {
		if err := storage.Truncate(ctx, j.Storage.Kind, repo, table); err != nil {
			return sum, err
		}
	}

	log.Printf("load: job=%s table=%s method=%s batch=%d buffer=%d columns=%d",
		j.Job, table, j.InsertMethod, j.Runtime.BatchSize, j.Runtime.ChannelBuffer, len(s))

	var (
		read    atomic.Int64
		dropped atomic.Int64
		drops   = newDropAgg(maxDropMessages)
		co      = newCoercer(s)
		columns = s.NormalizedNames()
		raw     = make(chan []string, j.Runtime.ChannelBuffer)
		rows    = make(chan []any, j.Runtime.ChannelBuffer)
		res     storage.LoadResult
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(raw)
		err := rs.Stream(gctx, raw)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &sampler.SourceReadError{Consumed: read.Load() + int64(len(raw)), Err: err}
	})

	g.Go(func() error {
		defer close(rows)
		for rec := range raw {
			n := read.Add(1)
			vals, err := co.row(rec)
			if err != nil {
				dropped.Add(1)
				drops.add(n, err)
				continue
			}
			select {
			case rows <- vals:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		var err error
		res, err = storage.LoadBatches(gctx, j.Job, columns, rows, j.Runtime.BatchSize, repo.CopyFrom)
		return err
	})

	err = g.Wait()

	sum = Summary{
		Read:         read.Load(),
		ParseSkipped: rs.Skipped(),
		Dropped:      dropped.Load(),
		Inserted:     res.Inserted,
		Parts:        res.Parts,
	}
	metrics.RecordRow(j.Job, metrics.KindRead, sum.Read)
	metrics.RecordRow(j.Job, metrics.KindDropped, sum.Dropped)
	metrics.RecordRow(j.Job, metrics.KindParseSkipped, sum.ParseSkipped)
	drops.log()
	logSummary(j.Job, sum)

	if err != nil {
		return sum, fmt.Errorf("load: %w", err)
	}
	return sum, nil
}
