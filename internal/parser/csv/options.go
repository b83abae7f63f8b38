package csv

import "csvsample/internal/config"

// Options configures record reading.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// LazyQuotes tolerates bare quotes inside unquoted fields.
	LazyQuotes bool

	// TrimSpace trims leading and trailing white space from every cell.
	TrimSpace bool

	// SkipMalformed drops rows encoding/csv cannot parse instead of failing.
	SkipMalformed bool

	// Scrub rewrites known broken byte sequences before parsing.
	Scrub []Rewrite
}

// Rewrite replaces every occurrence of From with To in the raw bytes.
type Rewrite struct {
	From, To string
}

// DefaultOptions returns the lenient settings used for sampling real-world
// exports.
func DefaultOptions() Options {
	return Options{Comma: ',', LazyQuotes: true, TrimSpace: true, SkipMalformed: true}
}

// OptionsFromConfig reads parser.options: comma, lazy_quotes, trim_space,
// skip_malformed and scrub ([{"from": ..., "to": ...}]). Missing keys keep
// DefaultOptions values.
func OptionsFromConfig(o config.Options) Options {
	def := DefaultOptions()
	opt := Options{
		Comma:         o.Rune("comma", def.Comma),
		LazyQuotes:    o.Bool("lazy_quotes", def.LazyQuotes),
		TrimSpace:     o.Bool("trim_space", def.TrimSpace),
		SkipMalformed: o.Bool("skip_malformed", def.SkipMalformed),
	}
	for _, p := range o.Pairs("scrub", "from", "to") {
		opt.Scrub = append(opt.Scrub, Rewrite{From: p[0], To: p[1]})
	}
	return opt
}
