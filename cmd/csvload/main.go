// Command csvload runs a JSON job: it samples the CSV file to infer (or check)
// its schema, optionally creates the target table, and loads every row in
// parts of runtime.batch_size rows.
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
	"time"

	"csvsample/internal/config"
	"csvsample/internal/exitcode"
	"csvsample/internal/load"
	"csvsample/internal/probe"
	"csvsample/internal/schema"
	"csvsample/internal/storage"

	// register all backends with the storage factory.
	_ "csvsample/internal/storage/all"
)

// newRepositoryFn is a test seam over storage.New.
var newRepositoryFn = storage.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		log.Printf("csvload: %v", err)
	}
	exitcode.Exit(err)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("csvload", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath        string
		metricsBackend string
		pushGatewayURL string
		statsdAddr     string
		validate       bool
		verbose        bool
	)
	fs.StringVar(&cfgPath, "config", "job.json", "job config JSON path")
	fs.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog, none (overrides env METRICS_BACKEND)")
	fs.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fs.StringVar(&statsdAddr, "statsd-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	fs.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return exitcode.AsBadRequest(err)
	}

	j, err := config.LoadFile(cfgPath)
	if err != nil {
		return exitcode.AsBadRequest(err)
	}
	j = j.WithDefaults()

	issues := config.ValidateJob(j)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		// An unknown column type keeps its own exit code.
		for i, p := range j.Schema {
			if _, err := schema.ParseColumnType(p[1]); err != nil {
				return fmt.Errorf("%s: schema[%d]: %w", cfgPath, i, err)
			}
		}
		return exitcode.AsBadRequest(fmt.Errorf("configuration is invalid: %s", cfgPath))
	}
	if validate {
		fmt.Fprintf(stdout, "configuration is valid: %s\n", cfgPath)
		return nil
	}

	flush := setupMetrics(metricsConfig{
		backend:        pick(metricsBackend, os.Getenv("METRICS_BACKEND")),
		pushGatewayURL: pick(pushGatewayURL, os.Getenv("PUSHGATEWAY_URL")),
		statsdAddr:     pick(statsdAddr, os.Getenv("DD_AGENT_ADDR")),
		job:            j.Job,
		verbose:        verbose,
	})
	defer flush()

	start := time.Now()
	if verbose {
		log.Printf("job: source=%s location=%s storage=%s table=%s method=%s",
			j.Source.Kind, j.Source.Location(), j.Storage.Kind, j.Storage.DB.Table, j.InsertMethod)
	}

	res, err := probe.Probe(ctx, probe.OptionsFromJob(j))
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("schema:\n%s", res.Text())
	}

	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind:    j.Storage.Kind,
		DSN:     j.Storage.DB.DSN,
		Table:   j.Storage.DB.Table,
		Columns: res.Schema.NormalizedNames(),
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	sum, err := load.Run(ctx, j, res.Schema, repo)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "loaded %d rows into %s (%d parts, %d dropped, %d malformed) in %s\n",
		sum.Inserted, j.Storage.DB.Table, sum.Parts, sum.Dropped, sum.ParseSkipped,
		time.Since(start).Truncate(time.Millisecond))
	return nil
}

// pick returns the first non-empty value.
func pick(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
