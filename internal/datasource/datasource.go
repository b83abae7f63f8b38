// Package datasource defines where raw bytes come from. Concrete sources live
// in subpackages (file, httpds); New picks one from a user-supplied path or
// URL.
package datasource

import (
	"context"
	"io"
	"strings"

	"csvsample/internal/datasource/file"
	"csvsample/internal/datasource/httpds"
)

// Source opens a fresh byte stream. Callers must close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Options tune how a location is opened.
type Options struct {
	// Folder is joined in front of a filesystem location (see file.Resolve).
	// It is ignored for URLs.
	Folder string
	// InsecureTLS skips certificate verification for HTTPS.
	InsecureTLS bool
	// MaxRetries is passed to the HTTP client.
	MaxRetries int
}

// IsURL reports whether location is an http(s) URL.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// New maps a location to a Source:
//   - "http://..." and "https://..." → httpds.Source
//   - "file://path"                  → file.Local(folder/path)
//   - anything else                  → file.Local(folder/location)
func New(location string, opt Options) (Source, error) {
	if IsURL(location) {
		c := httpds.NewClient(httpds.Config{
			InsecureSkipVerify: opt.InsecureTLS,
			MaxRetries:         opt.MaxRetries,
		})
		return httpds.NewSource(c, location), nil
	}
	p, err := file.Resolve(opt.Folder, strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, err
	}
	return file.NewLocal(p), nil
}

// FromLocation is New without a folder. It cannot fail.
func FromLocation(location string, insecureTLS bool) Source {
	src, _ := New(location, Options{InsecureTLS: insecureTLS})
	return src
}
