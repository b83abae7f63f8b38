// Package sampler draws a uniform random sample of at most k items from a
// read-once stream of unknown length using Algorithm L (Li, 1994).
//
// Instead of deciding per item whether it enters the reservoir, Algorithm L
// computes how many items to skip before the next replacement. Skipped items
// are pulled from the source and discarded without inspection, so the number
// of random draws is O(k(1+log(n/k))) rather than O(n). Memory is bounded by
// the reservoir itself.
//
// The sampler knows nothing about files, encodings, or delimiters: callers
// hand it a Source and a Rand. See internal/parser/csv for the record source
// used by the schema probe.
package sampler

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrInvalidArgument is returned (wrapped) for a non-positive sample size or a
// nil source. No items are read from the source in that case.
var ErrInvalidArgument = errors.New("sampler: invalid argument")

// SourceReadError reports a failure of the underlying source while the
// sample was being drawn. The partial reservoir is discarded.
type SourceReadError struct {
	// Consumed is the number of items successfully read before the failure.
	Consumed int64
	// Err is the error returned by Source.Next.
	Err error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("sampler: source read failed after %d items: %v", e.Consumed, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// Source is a read-once, front-to-back sequence. Next returns io.EOF (and
// only io.EOF) once the sequence is exhausted; any other error is treated as
// a read failure.
type Source[T any] interface {
	Next() (T, error)
}

// Stats describes one sampling pass.
type Stats struct {
	Seen     int64 // items pulled from the source
	Skipped  int64 // items discarded by skip runs
	Replaced int64 // reservoir slots overwritten after the initial fill
}

// maxInitialCap bounds the up-front reservoir allocation so that a huge k
// over a short stream does not allocate k slots.
const maxInitialCap = 1 << 16

// Sample returns min(k, n) items drawn uniformly from src, where n is the
// number of items src yields. Items from the initial fill keep their arrival
// order; later replacements land in random slots.
//
// A nil r uses DefaultRand.
func Sample[T any](src Source[T], k int, r Rand) ([]T, error) {
	out, _, err := SampleWithStats(src, k, r)
	return out, err
}

// SampleWithStats is Sample plus counters for logging and metrics.
func SampleWithStats[T any](src Source[T], k int, r Rand) ([]T, Stats, error) {
	var st Stats
	if k <= 0 {
		return nil, st, fmt.Errorf("%w: sample size must be positive, got %d", ErrInvalidArgument, k)
	}
	if src == nil {
		return nil, st, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if r == nil {
		r = DefaultRand()
	}

	// next pulls one item and keeps the counters honest.
	next := func() (T, bool, error) {
		v, err := src.Next()
		if err == io.EOF {
			return v, false, nil
		}
		if err != nil {
			return v, false, &SourceReadError{Consumed: st.Seen, Err: err}
		}
		st.Seen++
		return v, true, nil
	}

	reservoir := make([]T, 0, min(k, maxInitialCap))
	for len(reservoir) < k {
		v, ok, err := next()
		if err != nil {
			return nil, st, err
		}
		if !ok {
			return reservoir, st, nil
		}
		reservoir = append(reservoir, v)
	}

	kf := float64(k)
	w := math.Exp(math.Log(uniform(r)) / kf)
	for {
		for skip := skipLength(w, r); skip > 0; skip-- {
			_, ok, err := next()
			if err != nil {
				return nil, st, err
			}
			if !ok {
				return reservoir, st, nil
			}
			st.Skipped++
		}

		v, ok, err := next()
		if err != nil {
			return nil, st, err
		}
		if !ok {
			return reservoir, st, nil
		}
		reservoir[slot(r, kf, k)] = v
		st.Replaced++
		w *= math.Exp(math.Log(uniform(r)) / kf)
	}
}

// skipLength returns floor(ln(u) / ln(1-w)) clamped to [0, MaxInt64].
//
// w lies in [0, 1]. At w == 1 the denominator is -Inf and the skip is 0; at
// w == 0 (underflow after many replacements) the denominator is 0 and the
// rest of the stream is skipped.
func skipLength(w float64, r Rand) int64 {
	num := math.Log(uniform(r))
	den := math.Log1p(-w)
	if den == 0 {
		return math.MaxInt64
	}
	s := math.Floor(num / den)
	switch {
	case math.IsNaN(s) || s <= 0:
		return 0
	case s >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(s)
}

// slot picks a reservoir index in [0, k) from one draw.
func slot(r Rand, kf float64, k int) int {
	return min(int(r.Float64()*kf), k-1)
}

// uniform draws from the open interval (0, 1) so that ln(u) stays finite.
func uniform(r Rand) float64 {
	for {
		if u := r.Float64(); u > 0 && u < 1 {
			return u
		}
	}
}
