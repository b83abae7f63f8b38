// Command csvprobe samples a CSV file with a bounded reservoir and prints the
// inferred schema, one "header,normalized,TYPE" line per column, as JSON, or
// as a ready-to-edit csvload job.
//
// Exit codes are those of internal/exitcode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"unicode/utf8"

	"csvsample/internal/config"
	"csvsample/internal/exitcode"
	csvparser "csvsample/internal/parser/csv"
	"csvsample/internal/probe"
	"csvsample/internal/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		log.Printf("csvprobe: %v", err)
	}
	exitcode.Exit(err)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("csvprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		flagFile      = fs.String("file", "", "Path of a local CSV file (or file:// URL)")
		flagURL       = fs.String("url", "", "http(s) URL of the CSV file to sample")
		flagFolder    = fs.String("folder", "", "Folder joined in front of -file, relative to the working directory")
		flagK         = fs.Int("k", config.DefaultSampleSize, "Reservoir size: number of data rows to sample")
		flagSeed      = fs.String("seed", "", "Seed for a reproducible sample (unsigned integer); empty draws a fresh one")
		flagDelimiter = fs.String("delimiter", ",", "CSV field delimiter (single character)")
		flagName      = fs.String("name", "", "Dataset name used for the saved sample and generated job. Default: file name")
		flagJSON      = fs.Bool("json", false, "Print the schema and sampling counters as JSON")
		flagSchema    = fs.String("schema", "", `Explicit schema as JSON pairs, e.g. [["id","LONG"],["name","STRING"]]`)
		flagSave      = fs.Bool("save", false, "Write the header and sampled rows to [name].csv")
		flagSaveDir   = fs.String("save-dir", ".", "Directory for -save")
		flagDatePref  = fs.String("datepref", string(schema.DateAuto), "Date layout preference tie-breaker: auto|eu|us")
		flagInsecure  = fs.Bool("insecure", false, "Skip TLS certificate verification for -url")
		flagRetries   = fs.Int("retries", 0, "Retries for opening -url on 429/5xx")
		flagStrict    = fs.Bool("strict", false, "Fail on malformed CSV instead of skipping rows")
		flagJob       = fs.String("job", "", "Print a csvload job for this backend instead: postgres|mssql|sqlite|mysql")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return exitcode.AsBadRequest(err)
	}

	opt, err := optionsFromFlags(flagOptions{
		file: *flagFile, url: *flagURL, folder: *flagFolder,
		k: *flagK, seed: *flagSeed, delimiter: *flagDelimiter, name: *flagName,
		schema: *flagSchema, save: *flagSave, saveDir: *flagSaveDir,
		datePref: *flagDatePref, insecure: *flagInsecure, retries: *flagRetries,
		strict: *flagStrict,
	})
	if err != nil {
		return err
	}

	res, err := probe.Probe(ctx, opt)
	if err != nil {
		return err
	}

	var out []byte
	switch {
	case *flagJob != "":
		out, err = res.JobJSON(opt, *flagJob)
	case *flagJSON:
		out, err = res.JSON()
	default:
		out = res.Text()
	}
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

type flagOptions struct {
	file, url, folder string
	k                 int
	seed              string
	delimiter, name   string
	schema            string
	save              bool
	saveDir           string
	datePref          string
	insecure          bool
	retries           int
	strict            bool
}

// optionsFromFlags validates the flag combination. Every failure is a bad
// request.
func optionsFromFlags(f flagOptions) (probe.Options, error) {
	var opt probe.Options

	switch {
	case f.file != "" && f.url != "":
		return opt, exitcode.AsBadRequest(errors.New("use either -file or -url, not both"))
	case f.file != "":
		opt.Location = f.file
	case f.url != "":
		opt.Location = f.url
	default:
		return opt, exitcode.AsBadRequest(errors.New("one of -file or -url is required"))
	}
	if f.k <= 0 {
		return opt, exitcode.AsBadRequest(fmt.Errorf("-k must be positive, got %d", f.k))
	}

	opt.CSV = csvparser.DefaultOptions()
	if f.strict {
		opt.CSV.LazyQuotes = false
		opt.CSV.SkipMalformed = false
	}
	if f.delimiter != "" {
		r, size := utf8.DecodeRuneInString(f.delimiter)
		if r == utf8.RuneError || size != len(f.delimiter) {
			return opt, exitcode.AsBadRequest(fmt.Errorf("-delimiter must be a single character, got %q", f.delimiter))
		}
		opt.CSV.Comma = r
	}

	if f.seed != "" {
		v, err := strconv.ParseUint(f.seed, 10, 64)
		if err != nil {
			return opt, exitcode.AsBadRequest(fmt.Errorf("-seed: %w", err))
		}
		opt.Seed = &v
	}

	switch p := schema.DatePreference(f.datePref); p {
	case schema.DateAuto, schema.DateEU, schema.DateUS:
		opt.DatePreference = p
	default:
		return opt, exitcode.AsBadRequest(fmt.Errorf("-datepref must be auto, eu or us, got %q", f.datePref))
	}

	if f.schema != "" {
		pairs, err := schema.ParsePairsJSON([]byte(f.schema))
		if err != nil {
			return opt, exitcode.AsBadRequest(err)
		}
		opt.Schema = pairs
	}

	if f.url != "" {
		opt.InsecureTLS = f.insecure
		opt.MaxRetries = f.retries
	} else {
		opt.Folder = f.folder
	}
	opt.SampleSize = f.k
	opt.Name = f.name
	opt.SaveSample = f.save
	opt.SaveDir = f.saveDir
	return opt, nil
}
