package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestSource_OpenStreamsBody reads a whole CSV body.
func TestSource_OpenStreamsBody(t *testing.T) {
	t.Parallel()

	const body = "id,name\n1,a\n2,b\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	rc, err := NewSource(NewClient(Config{}), srv.URL+"/data.csv").Open(context.Background())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("body=%q; want %q", got, body)
	}
}

// TestSource_OpenRejectsNon2xx maps a 404 to *StatusError.
func TestSource_OpenRejectsNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc, err := NewSource(NewClient(Config{}), srv.URL).Open(context.Background())
	if rc != nil {
		rc.Close()
		t.Fatalf("got reader on error")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err=%v; want *StatusError 404", err)
	}
}

// TestNameFromURL derives dataset names from URLs.
func TestNameFromURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://example.com/exports/sales_2024.csv":   "sales_2024",
		"https://example.com/exports/sales.csv?dl=1":   "sales",
		"https://example.com/":                          "dataset",
		"https://example.com":                           "dataset",
		"https://example.com/archive.tar.gz":            "archive.tar",
		"://bad":                                        "dataset",
	}
	for in, want := range cases {
		if got := NameFromURL(in); got != want {
			t.Fatalf("NameFromURL(%q)=%q; want %q", in, got, want)
		}
	}
}
