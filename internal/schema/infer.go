package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// DatePreference breaks ties between day-first and month-first layouts when
// every sampled value is ambiguous (e.g. 03/04/2024).
type DatePreference string

const (
	// DateAuto picks the layout that parses the most samples and falls back
	// to day-first on ties.
	DateAuto DatePreference = "auto"
	// DateEU prefers DMY, then ISO, then MDY.
	DateEU DatePreference = "eu"
	// DateUS prefers MDY, then ISO, then DMY.
	DateUS DatePreference = "us"
)

// InferOptions tunes Infer.
type InferOptions struct {
	DatePreference DatePreference
}

// Infer derives one Column per header from sampled rows. Each non-empty
// value in a column must satisfy a type for the column to get it:
//
//	all empty             STRING
//	integers              LONG
//	true/false/yes/no/... BOOLEAN
//	numbers               DOUBLE
//	dates                 DATE
//	dates, some with time DATETIME
//	anything else         STRING
//
// Integers are checked before booleans, so a 0/1 column is LONG. Rows
// shorter than headers contribute only the cells they have.
func Infer(headers []string, rows [][]string, opt InferOptions) Schema {
	n := len(headers)
	cols := make([][]string, n)
	nullable := make([]bool, n)
	for _, row := range rows {
		for i := 0; i < n; i++ {
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v == "" {
				nullable[i] = true
				continue
			}
			cols[i] = append(cols[i], v)
		}
	}

	out := make(Schema, n)
	for i, h := range headers {
		t := inferColumnType(cols[i])
		c := Column{
			Name:     h,
			Type:     t,
			Nullable: nullable[i] || len(rows) == 0,
			Distinct: countDistinct(cols[i]),
		}
		switch t {
		case Date:
			c.Layout = selectBestLayout(cols[i], dateLayouts, datePreferenceFn(opt.DatePreference))
		case DateTime:
			c.Layout = selectBestLayout(cols[i], timestampLayouts, timestampPreferenceFn(opt.DatePreference))
		}
		out[i] = c
	}
	assignNormalized(out)
	return out
}

// inferColumnType expects trimmed, non-empty values.
func inferColumnType(values []string) ColumnType {
	if len(values) == 0 {
		return String
	}
	if allMatch(values, isInt) {
		return Long
	}
	if allMatch(values, isBool) {
		return Boolean
	}
	if allMatch(values, isNumber) {
		return Double
	}
	anyTime := false
	for _, v := range values {
		ok, hasTime := parseDateOrTimestamp(v)
		if !ok {
			return String
		}
		anyTime = anyTime || hasTime
	}
	if anyTime {
		return DateTime
	}
	return Date
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func countDistinct(vals []string) int {
	if len(vals) == 0 {
		return 0
	}
	seen := make(map[uint64]struct{}, min(len(vals), 1024))
	for _, v := range vals {
		seen[xxh3.HashString(v)] = struct{}{}
	}
	return len(seen)
}

// isBool accepts common textual booleans and 1/0.
func isBool(s string) bool {
	_, ok := ParseBool(s)
	return ok
}

// ParseBool maps true/false, t/f, yes/no, y/n and 1/0 (any case) to a bool.
func ParseBool(s string) (v bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isNumber accepts integers and finite floats. Inf and NaN spellings are
// not numbers in a CSV.
func isNumber(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return f-f == 0
}

// parseDateOrTimestamp tries timestamp layouts first, then dates.
func parseDateOrTimestamp(s string) (ok bool, hasTime bool) {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true, true
		}
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true, false
		}
	}
	return false, false
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01.02.2006",
	"02/01/2006",
	"01/02/2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2006/01/02",
	"20060102",
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
}

type layoutOrder int

const (
	orderOther layoutOrder = iota
	orderMDY
	orderISO
	orderDMY
)

func dateOrder(layout string) layoutOrder {
	switch layout {
	case "02.01.2006", "02/01/2006", "2 Jan 2006", "02-Jan-2006",
		"02/01/2006 15:04:05", "02.01.2006 15:04:05":
		return orderDMY
	case "2006-01-02", "2006/01/02", "20060102":
		return orderISO
	case "01.02.2006", "01/02/2006", "01/02/2006 15:04:05":
		return orderMDY
	}
	return orderOther
}

// datePreferenceFn returns a tie-break weight, higher wins.
func datePreferenceFn(p DatePreference) func(string) int {
	return func(layout string) int {
		o := dateOrder(layout)
		if p == DateUS {
			switch o {
			case orderMDY:
				return 3
			case orderDMY:
				return 1
			}
		}
		return int(o)
	}
}

// timestampPreferenceFn favours RFC 3339 and then applies the date order.
func timestampPreferenceFn(p DatePreference) func(string) int {
	datePref := datePreferenceFn(p)
	return func(layout string) int {
		switch layout {
		case time.RFC3339Nano:
			return 6
		case time.RFC3339:
			return 5
		}
		return datePref(layout)
	}
}

// selectBestLayout scores each layout by how many samples it parses and
// picks the highest score, then the higher preference, then the earlier
// layout. It returns "" when nothing parses.
func selectBestLayout(samples []string, layouts []string, pref func(string) int) string {
	if len(samples) == 0 || len(layouts) == 0 {
		return ""
	}
	scores := make([]int, len(layouts))
	for _, s := range samples {
		for i, lay := range layouts {
			if _, err := time.Parse(lay, s); err == nil {
				scores[i]++
			}
		}
	}

	bestIdx, bestScore, bestPref := -1, 0, -1
	for i, lay := range layouts {
		sc := scores[i]
		if sc == 0 || sc < bestScore {
			continue
		}
		p := pref(lay)
		if sc > bestScore || p > bestPref {
			bestIdx, bestScore, bestPref = i, sc, p
		}
	}
	if bestIdx < 0 {
		return ""
	}
	return layouts[bestIdx]
}

// ParseTime parses s with layout, or, when layout is empty, with the first
// known timestamp or date layout that accepts it.
func ParseTime(s, layout string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if layout != "" {
		t, err := time.Parse(layout, s)
		return t, err == nil
	}
	for _, set := range [][]string{timestampLayouts, dateLayouts} {
		for _, l := range set {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
