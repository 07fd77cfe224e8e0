// Package loader fetches the catalog document from a file or an HTTP(S)
// URL and parses it into a catalog.Catalog.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/debug"
	"github.com/vanderheijden86/museumhub/pkg/metrics"
)

// MaxDocumentSize caps how much of a catalog document is read.
const MaxDocumentSize = 16 << 20

// DefaultTimeout bounds a single fetch when the caller gives none.
const DefaultTimeout = 10 * time.Second

// Source produces a parsed catalog.
type Source interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
	// Location names the source in errors and status lines.
	Location() string
}

// FileSource reads the catalog from a local file.
type FileSource struct {
	Path string
}

// Location implements Source.
func (s FileSource) Location() string { return s.Path }

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	defer metrics.Timer(metrics.CatalogFetch)()
	if err := ctx.Err(); err != nil {
		return nil, &catalog.LoadError{Source: s.Path, Err: err}
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &catalog.LoadError{Source: s.Path, Err: err}
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return nil, &catalog.LoadError{Source: s.Path, Err: err}
	}
	return parse(s.Path, data)
}

// HTTPSource fetches the catalog over HTTP(S).
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// Location implements Source.
func (s HTTPSource) Location() string { return s.URL }

// Load implements Source.
func (s HTTPSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	defer metrics.Timer(metrics.CatalogFetch)()
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &catalog.LoadError{Source: s.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &catalog.LoadError{Source: s.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &catalog.LoadError{Source: s.URL, Err: fmt.Errorf("HTTP error! status: %d", resp.StatusCode)}
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, &catalog.LoadError{Source: s.URL, Err: err}
	}
	return parse(s.URL, data)
}

// ErrTooLarge is returned when a document exceeds MaxDocumentSize.
var ErrTooLarge = errors.New("catalog document too large")

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

func parse(location string, data []byte) (*catalog.Catalog, error) {
	start := time.Now()
	c, err := catalog.Parse(data)
	elapsed := time.Since(start)
	metrics.CatalogParse.Record(elapsed)
	debug.LogTiming("loader: parse "+location, elapsed)
	if err != nil {
		var le *catalog.LoadError
		if errors.As(err, &le) {
			le.Source = location
			return nil, le
		}
		return nil, &catalog.LoadError{Source: location, Err: err}
	}
	debug.Log("loader: %s: %d museums, %d lessons", location, len(c.Museums()), c.TotalLessonCount())
	return c, nil
}

// IsURL reports whether location should be fetched over HTTP.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// NewSource picks a FileSource or HTTPSource for location.
func NewSource(location string, timeout time.Duration) Source {
	if IsURL(location) {
		return HTTPSource{URL: location, Timeout: timeout}
	}
	return FileSource{Path: location}
}
