package httpds

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
)

// Source streams the full body of a URL.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source that downloads rawURL with client.
func NewSource(client *Client, rawURL string) *Source {
	return &Source{client: client, url: rawURL}
}

// URL returns the configured address.
func (s *Source) URL() string { return s.url }

// Open starts the download. Any status outside 2xx is a *StatusError.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// NameFromURL derives a dataset name from a URL: the last path segment
// without its extension, or "dataset" when there is none.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "dataset"
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || base == "" {
		return "dataset"
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		return "dataset"
	}
	return base
}
