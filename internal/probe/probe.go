// Package probe samples a CSV file and derives its schema.
//
// The whole file is read once. Data rows flow from the record source into an
// Algorithm L reservoir, so memory stays bounded by the sample size no matter
// how large the input is. Types are then inferred from the sample, or an
// explicit [name, TYPE] list is checked against the header instead.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"csvsample/internal/config"
	"csvsample/internal/datasource"
	"csvsample/internal/datasource/httpds"
	"csvsample/internal/metrics"
	csvparser "csvsample/internal/parser/csv"
	"csvsample/internal/sampler"
	"csvsample/internal/schema"
)

// ErrNoLocation is returned when Options names no file or URL.
var ErrNoLocation = errors.New("probe: no input location")

// Options control sampling and inference.
type Options struct {
	// Location is a filesystem path, a file:// URL or an http(s):// URL.
	Location string
	// Folder is joined in front of a filesystem Location.
	Folder string
	// InsecureTLS skips certificate verification for HTTPS downloads.
	InsecureTLS bool
	// MaxRetries retries opening an HTTP download on 429/5xx.
	MaxRetries int

	// Name is the dataset name used for saved samples and generated
	// configs. Empty derives it from Location.
	Name string
	// Job is the metrics job label. Empty uses the normalized Name.
	Job string

	// SampleSize is the reservoir size k. Zero means
	// config.DefaultSampleSize; negative values are rejected by the sampler.
	SampleSize int
	// Seed, when set, makes the sample reproducible.
	Seed *uint64

	CSV csvparser.Options

	// Schema pins column types as [name, TYPE] pairs. Empty infers them.
	Schema         [][2]string
	DatePreference schema.DatePreference

	// SaveSample writes the header and sampled rows to SaveDir/<name>.csv.
	SaveSample bool
	SaveDir    string
}

// OptionsFromJob maps a csvload job onto probe options.
func OptionsFromJob(j config.Job) Options {
	opt := Options{
		Location:   j.Source.Location(),
		Job:        j.Job,
		Name:       j.Job,
		SampleSize: j.Sample.Size,
		Seed:       j.Sample.Seed,
		CSV:        csvparser.OptionsFromConfig(j.Parser.Options),
		Schema:     j.Schema,
	}
	switch j.Source.Kind {
	case "http":
		opt.InsecureTLS = j.Source.HTTP.InsecureTLS
		opt.MaxRetries = j.Source.HTTP.MaxRetries
	default:
		opt.Folder = j.Source.File.Folder
	}
	opt.DatePreference = schema.DatePreference(j.Parser.Options.String("date_preference", string(schema.DateAuto)))
	return opt
}

// Result is the outcome of one probe.
type Result struct {
	// Name is the normalized dataset name.
	Name   string
	Header []string
	Schema schema.Schema
	// Explicit is set when Schema came from Options.Schema.
	Explicit bool

	// Sample holds the reservoir rows, aligned with Header.
	Sample [][]string
	Stats  sampler.Stats
	// Malformed counts rows the CSV reader dropped before sampling.
	Malformed int64
	// SavedTo is the path of the written sample, if any.
	SavedTo string
}

// Probe reads the source once, samples it and derives the schema.
//
// Errors keep their identity for callers that map them to exit codes:
// os.ErrNotExist from a missing file, *sampler.SourceReadError from a
// failed read, schema.ErrColumnMismatch and schema.ErrInvalidDataType from
// an explicit schema.
func Probe(ctx context.Context, opt Options) (res Result, err error) {
	if opt.Location == "" {
		return Result{}, ErrNoLocation
	}
	res.Name = datasetName(opt)
	job := opt.Job
	if job == "" {
		job = res.Name
	}

	start := time.Now()
	defer func() { metrics.RecordStep(job, "probe", err, time.Since(start)) }()

	src, err := openSource(opt)
	if err != nil {
		return Result{}, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	rs, err := csvparser.NewRecordSource(rc, opt.CSV)
	if err != nil {
		return Result{}, err
	}
	rs.OnSkip(func(line int, err error) {
		log.Printf("probe: skip line=%d err=%v", line, err)
	})
	res.Header = rs.Header()

	// Fail fast on an explicit schema before reading the body.
	if len(opt.Schema) > 0 {
		if res.Schema, err = schema.FromPairs(res.Header, opt.Schema); err != nil {
			return Result{}, err
		}
		res.Explicit = true
	}

	k := opt.SampleSize
	if k == 0 {
		k = config.DefaultSampleSize
	}
	var rng sampler.Rand
	if opt.Seed != nil {
		rng = sampler.NewRand(*opt.Seed)
	}

	res.Sample, res.Stats, err = sampler.SampleWithStats[[]string](ctxSource{ctx: ctx, src: rs}, k, rng)
	res.Malformed = rs.Skipped()
	if err != nil {
		return Result{}, err
	}
	metrics.RecordSample(job, res.Stats, len(res.Sample))
	metrics.RecordRow(job, metrics.KindParseSkipped, res.Malformed)

	inferred := schema.Infer(res.Header, res.Sample, schema.InferOptions{DatePreference: opt.DatePreference})
	if res.Explicit {
		copyLayouts(res.Schema, inferred)
	} else {
		res.Schema = inferred
	}

	if opt.SaveSample {
		res.SavedTo = filepath.Join(opt.SaveDir, res.Name+".csv")
		if err = writeSample(res.SavedTo, opt.CSV.Comma, res.Header, res.Sample); err != nil {
			return Result{}, err
		}
	}

	log.Printf("probe: job=%s seen=%d sampled=%d replaced=%d malformed=%d columns=%d",
		job, res.Stats.Seen, len(res.Sample), res.Stats.Replaced, res.Malformed, len(res.Schema))
	return res, nil
}

func openSource(opt Options) (datasource.Source, error) {
	return datasource.New(opt.Location, datasource.Options{
		Folder:      opt.Folder,
		InsecureTLS: opt.InsecureTLS,
		MaxRetries:  opt.MaxRetries,
	})
}

// datasetName picks the normalized dataset name: Options.Name, else the
// file or URL base name without extension.
func datasetName(opt Options) string {
	if opt.Name != "" {
		return schema.NormalizeName(opt.Name)
	}
	if datasource.IsURL(opt.Location) {
		return schema.NormalizeName(httpds.NameFromURL(opt.Location))
	}
	base := filepath.Base(strings.TrimPrefix(opt.Location, "file://"))
	return schema.NormalizeName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// copyLayouts gives pinned DATE and DATETIME columns the layout detected in
// the sample when inference agrees on the type.
func copyLayouts(dst, inferred schema.Schema) {
	for i := range dst {
		if i < len(inferred) && dst[i].Type.Temporal() && dst[i].Type == inferred[i].Type {
			dst[i].Layout = inferred[i].Layout
		}
	}
}

// ctxSource stops sampling when ctx is done. The check happens per row, so
// a canceled probe surfaces as a SourceReadError wrapping ctx.Err().
type ctxSource struct {
	ctx context.Context
	src sampler.Source[[]string]
}

func (c ctxSource) Next() ([]string, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	return c.src.Next()
}
