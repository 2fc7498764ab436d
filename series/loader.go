package series

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/dbdb/internal/lru"
)

// Extension is the file suffix of encoded series.
const Extension = ".series"

const defaultCacheSize = 256

// Loader reads and writes encoded series under a base URL (local path or any afs
// supported scheme). Item identifiers are file names relative to the base URL.
type Loader struct {
	fs      afs.Service
	baseURL string
	cache   *lru.Cache[string, *Series]
	filter  *Filter
}

// LoaderOption configures a Loader.
type LoaderOption func(l *Loader)

// WithCacheSize sets how many decoded series are kept in memory; 0 disables the cache.
func WithCacheSize(size int) LoaderOption {
	return func(l *Loader) {
		l.cache = lru.New[string, *Series](size)
	}
}

// WithFilter restricts List to ids accepted by filter.
func WithFilter(filter *Filter) LoaderOption {
	return func(l *Loader) {
		l.filter = filter
	}
}

// WithFS overrides the afs service.
func WithFS(fs afs.Service) LoaderOption {
	return func(l *Loader) {
		l.fs = fs
	}
}

// NewLoader creates a loader rooted at baseURL.
func NewLoader(baseURL string, opts ...LoaderOption) (*Loader, error) {
	location, err := normalizeLocation(baseURL)
	if err != nil {
		return nil, err
	}
	ret := &Loader{baseURL: location}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.cache == nil {
		ret.cache = lru.New[string, *Series](defaultCacheSize)
	}
	return ret, nil
}

// normalizeLocation turns relative and absolute OS paths into file URLs.
func normalizeLocation(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("series: base URL is required")
	}
	if url.Scheme(location, "") == "" && url.IsRelative(location) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", fmt.Errorf("series: failed to get absolute path for %s: %w", location, err)
		}
		location = abs
	}
	if url.Scheme(location, "") == "" {
		location = url.ToFileURL(location)
	}
	return location, nil
}

// BaseURL returns the normalized base URL.
func (l *Loader) BaseURL() string {
	return l.baseURL
}

// URL returns the location of the item id.
func (l *Loader) URL(id string) string {
	return url.Join(l.baseURL, id)
}

// Load returns the series stored under id.
func (l *Loader) Load(ctx context.Context, id string) (*Series, error) {
	if cached, ok := l.cache.Get(id); ok {
		return cached, nil
	}
	data, err := l.fs.DownloadWithURL(ctx, l.URL(id))
	if err != nil {
		return nil, fmt.Errorf("series: load %s: %w", id, err)
	}
	ret, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("series: decode %s: %w", id, err)
	}
	if ret.Name == "" {
		ret.Name = id
	}
	l.cache.Put(id, ret)
	return ret, nil
}

// Save stores s under its name and returns the item id.
func (l *Loader) Save(ctx context.Context, s *Series) (string, error) {
	id := s.Name
	if id == "" {
		return "", fmt.Errorf("series: name is required to save")
	}
	if !strings.HasSuffix(id, Extension) {
		id += Extension
	}
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	if err := l.fs.Upload(ctx, l.URL(id), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("series: save %s: %w", id, err)
	}
	l.cache.Put(id, s)
	return id, nil
}

// List returns the ids of all series under the base URL accepted by the filter, sorted by name.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	exists, err := l.fs.Exists(ctx, l.baseURL)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	objects, err := l.fs.List(ctx, l.baseURL)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), Extension) || !l.filter.Match(object.Name()) {
			continue
		}
		ids = append(ids, object.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Fingerprint returns the fingerprint of s, letting the loader detect changed vantage items.
func (l *Loader) Fingerprint(s *Series) (uint64, error) {
	return Fingerprint(s)
}
