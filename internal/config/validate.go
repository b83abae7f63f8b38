package config

import (
	"fmt"
	"strings"

	"csvsample/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path is a dotted path into the config,
// e.g. "storage.db.table" or "schema[2][1]".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateJob lints a decoded Job. It does not mutate j and performs no I/O:
// whether the file exists or the explicit schema matches its header is
// checked when the job runs.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will use the default job name",
		})
	}
	issues = append(issues, validateSource(j.Source)...)
	issues = append(issues, validateParser(j.Parser)...)
	issues = append(issues, validateSample(j.Sample)...)
	issues = append(issues, validateSchema(j.Schema)...)
	issues = append(issues, validateStorage(j.Storage)...)
	issues = append(issues, validateInsertMethod(j.InsertMethod)...)
	issues = append(issues, validateRuntime(j.Runtime)...)
	return issues
}

func validateSource(s Source) []Issue {
	switch s.Kind {
	case "", "file":
		if strings.TrimSpace(s.File.Path) == "" {
			return []Issue{{SeverityError, "source.file.path", "file source requires a non-empty path"}}
		}
	case "http":
		u := strings.TrimSpace(s.HTTP.URL)
		if u == "" {
			return []Issue{{SeverityError, "source.http.url", "http source requires a url"}}
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return []Issue{{SeverityError, "source.http.url", fmt.Sprintf("url %q must start with http:// or https://", u)}}
		}
		var issues []Issue
		if s.HTTP.InsecureTLS {
			issues = append(issues, Issue{SeverityWarning, "source.http.insecure_tls", "TLS certificate verification is disabled"})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{SeverityError, "source.http.max_retries", "max_retries must not be negative"})
		}
		return issues
	default:
		return []Issue{{SeverityError, "source.kind", fmt.Sprintf("unknown source kind %q (want file or http)", s.Kind)}}
	}
	return nil
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if p.Kind != "" && p.Kind != "csv" {
		issues = append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unsupported parser kind %q", p.Kind)})
	}
	if c, ok := p.Options["comma"]; ok {
		s, isStr := c.(string)
		if !isStr || s == "" {
			issues = append(issues, Issue{SeverityError, "parser.options.comma", "comma must be a non-empty string"})
		} else if r := p.Options.Rune("comma", ','); r == '"' || r == '\r' || r == '\n' {
			issues = append(issues, Issue{SeverityError, "parser.options.comma", fmt.Sprintf("invalid delimiter %q", r)})
		}
	}
	return issues
}

func validateSample(s Sample) []Issue {
	if s.Size < 0 {
		return []Issue{{SeverityError, "sample.size", "sample size must not be negative"}}
	}
	return nil
}

func validateSchema(pairs [][2]string) []Issue {
	var issues []Issue
	seen := make(map[string]int, len(pairs))
	for i, p := range pairs {
		name := strings.TrimSpace(p[0])
		if name == "" {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("schema[%d][0]", i), "column name must not be empty"})
		} else if prev, dup := seen[name]; dup {
			issues = append(issues, Issue{SeverityWarning, fmt.Sprintf("schema[%d][0]", i), fmt.Sprintf("column %q repeats schema[%d]", name, prev)})
		} else {
			seen[name] = i
		}
		if _, err := schema.ParseColumnType(p[1]); err != nil {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("schema[%d][1]", i), err.Error()})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	if strings.TrimSpace(s.Kind) == "" {
		return []Issue{{SeverityError, "storage.kind", "storage.kind must not be empty"}}
	}
	var issues []Issue
	switch s.Kind {
	case "postgres", "mssql", "sqlite", "mysql":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "storage.db.dsn must not be empty"})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.table", "storage.db.table must not be empty"})
	}
	return issues
}

func validateInsertMethod(m string) []Issue {
	switch strings.ToUpper(strings.TrimSpace(m)) {
	case "", InsertMethodReplace, InsertMethodAppend:
		return nil
	}
	return []Issue{{SeverityError, "insert_method", fmt.Sprintf("insert_method %q must be REPLACE or APPEND", m)}}
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.batch_size", "batch_size must not be negative"})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.channel_buffer", "channel_buffer must not be negative"})
	}
	return issues
}
