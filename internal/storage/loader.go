package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"csvsample/internal/metrics"
)

// CopyFn is a backend's bulk insert. It inserts rows aligned to columns and
// returns the number of rows written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadResult reports what LoadBatches wrote.
type LoadResult struct {
	Inserted int64
	// Parts is the number of batches flushed successfully.
	Parts int64
}

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn per non-empty batch. It returns on close of in, on the first
// copy error, or when ctx is done. job labels the progress metrics.
//
// Progress is logged after every flush with running totals and the rate
// since the previous flush.
func LoadBatches(
	ctx context.Context,
	job string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (LoadResult, error) {
	var res LoadResult
	if batchSize <= 0 {
		return res, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return res, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch     = make([][]any, 0, min(batchSize, 1<<14))
		start     = time.Now()
		lastFlush = start
		lastTotal int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		res.Inserted += n
		metrics.RecordRow(job, metrics.KindInserted, n)
		batch = batch[:0]
		if err != nil {
			log.Printf("loader: copy failed after=%d total=%d err=%v", n, res.Inserted, err)
			return err
		}

		res.Parts++
		metrics.RecordParts(job, 1)
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(res.Inserted-lastTotal) / since.Seconds()
		}
		log.Printf("loader: part #%d rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			res.Parts, rps, n, res.Inserted, now.Sub(start).Truncate(time.Millisecond))
		lastFlush = now
		lastTotal = res.Inserted
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return res, err
				}
				log.Printf("loader: input closed, total_inserted=%d parts=%d", res.Inserted, res.Parts)
				return res, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return res, err
				}
			}
		}
	}
}
