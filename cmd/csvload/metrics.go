package main

import (
	"log"

	"csvsample/internal/metrics"
	"csvsample/internal/metrics/datadog"
	"csvsample/internal/metrics/prompush"
)

const (
	defaultPushGatewayURL = "http://localhost:9091"
	defaultStatsdAddr     = "127.0.0.1:8125"
)

type metricsConfig struct {
	backend        string
	pushGatewayURL string
	statsdAddr     string
	job            string
	verbose        bool
}

// setupMetrics installs the chosen backend and returns a function that
// flushes it. A backend that fails to start leaves the nop backend in place.
func setupMetrics(cfg metricsConfig) (flush func()) {
	flush = func() {}

	switch cfg.backend {
	case "pushgateway":
		url := pick(cfg.pushGatewayURL, defaultPushGatewayURL)
		b, err := prompush.NewBackend(cfg.job, url)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return flush
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", url, cfg.backend, cfg.job)
		metrics.SetBackend(b)

	case "datadog":
		addr := pick(cfg.statsdAddr, defaultStatsdAddr)
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "csvsample.",
			GlobalTags: []string{"job:" + cfg.job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return flush
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, cfg.backend, cfg.job)
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush error: %v", err)
			}
			if err := b.Close(); err != nil {
				log.Printf("metrics: close error: %v", err)
			}
		}

	case "", "none":
		if cfg.verbose {
			log.Printf("metrics: disabled (backend=%q)", cfg.backend)
		}
		return flush

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.backend)
		return flush
	}

	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
