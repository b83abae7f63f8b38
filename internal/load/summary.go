package load

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// dropAgg collects coercion failures: the first limit messages verbatim and
// a count per column.
type dropAgg struct {
	mu       sync.Mutex
	limit    int
	count    int
	first    []string
	byColumn map[string]int
}

func newDropAgg(limit int) *dropAgg {
	return &dropAgg{limit: limit, byColumn: make(map[string]int)}
}

func (a *dropAgg) add(row int64, err error) {
	col := "?"
	var ce *CoerceError
	if errors.As(err, &ce) {
		col = ce.Column
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.byColumn[col]++
	if a.count < a.limit {
		a.first = append(a.first, fmt.Sprintf("row %d: %v", row, err))
	}
	a.count++
}

func (a *dropAgg) log() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return
	}
	log.Printf("load: dropped rows: %d (showing first %d)", a.count, len(a.first))
	for i, s := range a.first {
		log.Printf("  #%03d: %s", i+1, s)
	}
	cols := make([]string, 0, len(a.byColumn))
	for c := range a.byColumn {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		log.Printf("  column=%q dropped=%d", c, a.byColumn[c])
	}
}

// logSummary prints the final counters. Every data row is either skipped by
// the parser, dropped by coercion, inserted, or left unloaded after an error:
//
//	read == dropped + inserted + unloaded
func logSummary(job string, s Summary) {
	log.Printf("load: summary job=%s read=%d parse_skipped=%d dropped=%d inserted=%d parts=%d",
		job, s.Read, s.ParseSkipped, s.Dropped, s.Inserted, s.Parts)
	if unloaded := s.Read - s.Dropped - s.Inserted; unloaded != 0 {
		log.Printf("load: WARNING: row accounting mismatch: read=%d accounted=%d (delta=%d)",
			s.Read, s.Dropped+s.Inserted, unloaded)
	}
}
