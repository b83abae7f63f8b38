// Package config defines the JSON job model for csvload. Decoding is done
// with encoding/json; parser options stay a free-form map read through the
// Options helper.
//
// Example (trimmed):
//
//	{
//	  "job":    "sales_upload",
//	  "source": { "kind": "file", "file": { "path": "sales.csv", "folder": "exports" } },
//	  "parser": { "kind": "csv", "options": { "comma": ";" } },
//	  "sample": { "size": 10000, "seed": 42 },
//	  "schema": [["id", "LONG"], ["name", "STRING"]],
//	  "storage": { "kind": "sqlite", "db": { "dsn": "file:out.db", "table": "sales", "auto_create_table": true } },
//	  "insert_method": "REPLACE"
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Defaults applied by Job.WithDefaults.
const (
	DefaultSampleSize   = 10000
	DefaultBatchSize    = 50000
	DefaultChanBuffer   = 4096
	InsertMethodReplace = "REPLACE"
	InsertMethodAppend  = "APPEND"
)

// Job is the top-level object decoded from a job file.
type Job struct {
	// Job names the run; used as the metrics job label.
	Job string `json:"job"`

	Source Source `json:"source"`
	Parser Parser `json:"parser"`
	Sample Sample `json:"sample"`

	// Schema optionally pins column types as [name, TYPE] pairs. When empty
	// the schema is inferred from a sample of the file.
	Schema [][2]string `json:"schema"`

	Storage Storage `json:"storage"`

	// InsertMethod is REPLACE (truncate, then load) or APPEND.
	InsertMethod string `json:"insert_method"`

	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies where the file comes from.
type Source struct {
	// Kind is "file" or "http".
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile is a local file. Folder, when set, is joined in front of Path
// relative to the working directory.
type SourceFile struct {
	Path   string `json:"path"`
	Folder string `json:"folder"`
}

// SourceHTTP downloads the file with a GET.
type SourceHTTP struct {
	URL         string `json:"url"`
	InsecureTLS bool   `json:"insecure_tls"`
	MaxRetries  int    `json:"max_retries"`
}

// Location returns the path or URL the source points at.
func (s Source) Location() string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

// Parser selects how bytes become records.
type Parser struct {
	// Kind is "csv".
	Kind string `json:"kind"`

	// Options for csv: comma (string), lazy_quotes, trim_space,
	// skip_malformed (bools), scrub (array of {"from","to"} objects).
	Options Options `json:"options"`
}

// Sample configures the reservoir used for schema inference.
type Sample struct {
	Size int `json:"size"`

	// Seed makes the sample reproducible. Nil means a fresh random sample.
	Seed *uint64 `json:"seed"`
}

// Storage selects the database sink.
type Storage struct {
	// Kind is one of postgres, mssql, sqlite, mysql.
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`

	// AutoCreateTable issues CREATE TABLE IF NOT EXISTS from the schema.
	AutoCreateTable bool `json:"auto_create_table"`
}

// RuntimeConfig sizes the load step.
type RuntimeConfig struct {
	// BatchSize is the number of rows per insert part.
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Decode reads one Job from r.
func Decode(r io.Reader) (Job, error) {
	var j Job
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode config: %w", err)
	}
	return j, nil
}

// LoadFile opens and decodes the job file at path.
func LoadFile(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WithDefaults returns a copy of j with zero values filled in.
func (j Job) WithDefaults() Job {
	if j.Job == "" {
		j.Job = "csvload"
	}
	if j.Source.Kind == "" {
		j.Source.Kind = "file"
	}
	if j.Parser.Kind == "" {
		j.Parser.Kind = "csv"
	}
	if j.Parser.Options == nil {
		j.Parser.Options = Options{}
	}
	if j.Sample.Size <= 0 {
		j.Sample.Size = DefaultSampleSize
	}
	j.InsertMethod = strings.ToUpper(strings.TrimSpace(j.InsertMethod))
	if j.InsertMethod == "" {
		j.InsertMethod = InsertMethodReplace
	}
	if j.Runtime.BatchSize <= 0 {
		j.Runtime.BatchSize = DefaultBatchSize
	}
	if j.Runtime.ChannelBuffer <= 0 {
		j.Runtime.ChannelBuffer = DefaultChanBuffer
	}
	return j
}

// Options fetches typed values from a JSON object. Missing keys and values of
// an unexpected type yield the supplied default.
type Options map[string]any

// String returns the string at key or def.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool at key or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the int at key or def. encoding/json decodes numbers as
// float64, so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return def
}

// Rune returns the first rune of the string at key, or def when missing or
// empty. "\t" and "tab" both mean a tab.
func (o Options) Rune(key string, def rune) rune {
	s, ok := o[key].(string)
	if !ok || s == "" {
		return def
	}
	if s == `\t` || strings.EqualFold(s, "tab") {
		return '\t'
	}
	return []rune(s)[0]
}

// Pairs returns the array of objects at key as (from, to) string pairs read
// from the given field names. Malformed entries are skipped.
func (o Options) Pairs(key, fromField, toField string) [][2]string {
	arr, ok := o[key].([]any)
	if !ok {
		return nil
	}
	out := make([][2]string, 0, len(arr))
	for _, v := range arr {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		from, _ := m[fromField].(string)
		to, _ := m[toField].(string)
		if from == "" {
			continue
		}
		out = append(out, [2]string{from, to})
	}
	return out
}

// UnmarshalJSON makes a missing or null "options" decode to an empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
