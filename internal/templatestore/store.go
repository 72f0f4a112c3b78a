// Package templatestore loads prompt template texts from local or cloud locations.
package templatestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"google.golang.org/api/option"
)

// ErrNotFound is returned when a named template does not exist in the source.
var ErrNotFound = errors.New("template not found")

// Store is a source of prompt template texts addressed by name.
type Store interface {
	// Load returns the text of the template called name.
	Load(ctx context.Context, name string) (string, error)
	// Check verifies the source is reachable.
	Check(ctx context.Context) error
	String() string
}

// objectName returns the object key for a template name under prefix.
func objectName(prefix, name string) string {
	key := name + ".txt"
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// MapStore serves templates from memory.
type MapStore struct {
	label string
	texts map[string]string
}

// NewMapStore returns a store over the given name → text map.
func NewMapStore(label string, texts map[string]string) *MapStore {
	return &MapStore{label: label, texts: texts}
}

func (m *MapStore) Load(_ context.Context, name string) (string, error) {
	t, ok := m.texts[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return t, nil
}

func (m *MapStore) Check(context.Context) error { return nil }

func (m *MapStore) String() string { return m.label }

// Names returns the template names in the store, sorted.
func (m *MapStore) Names() []string {
	names := make([]string, 0, len(m.texts))
	for n := range m.texts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type openOptions struct {
	gcsOptions      []option.ClientOption
	azureConnString string
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithGCSOptions passes client options to the Cloud Storage client.
func WithGCSOptions(opts ...option.ClientOption) OpenOption {
	return func(o *openOptions) {
		o.gcsOptions = append(o.gcsOptions, opts...)
	}
}

// WithAzureConnectionString authenticates Azure Blob access with a connection string
// instead of the default Azure credential chain.
func WithAzureConnectionString(s string) OpenOption {
	return func(o *openOptions) {
		o.azureConnString = s
	}
}

// Open returns the store for a source kind ("dir", "gcs" or "azblob") and location.
func Open(ctx context.Context, source, location string, opts ...OpenOption) (Store, error) {
	o := &openOptions{}
	for _, opt := range opts {
		opt(o)
	}

	switch source {
	case "dir":
		return NewDirStore(location), nil
	case "gcs":
		bucket, prefix, err := parseGCSLocation(location)
		if err != nil {
			return nil, err
		}
		return NewGCSStore(ctx, bucket, prefix, o.gcsOptions...)
	case "azblob":
		serviceURL, container, prefix, err := parseBlobLocation(location)
		if err != nil {
			return nil, err
		}
		return NewAzBlobStore(serviceURL, container, prefix, o.azureConnString)
	default:
		return nil, fmt.Errorf("unsupported template source %q", source)
	}
}

// parseGCSLocation splits gs://bucket/prefix.
func parseGCSLocation(loc string) (bucket, prefix string, err error) {
	u, err := url.Parse(loc)
	if err != nil {
		return "", "", fmt.Errorf("invalid gcs location %q: %w", loc, err)
	}
	if u.Scheme != "gs" || u.Host == "" {
		return "", "", fmt.Errorf("invalid gcs location %q: want gs://bucket/prefix", loc)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// parseBlobLocation splits https://<account>.blob.core.windows.net/<container>/<prefix>.
func parseBlobLocation(loc string) (serviceURL, container, prefix string, err error) {
	u, err := url.Parse(loc)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid blob location %q: %w", loc, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", "", "", fmt.Errorf("invalid blob location %q: want https://<account>.blob.core.windows.net/<container>/<prefix>", loc)
	}
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if parts[0] == "" {
		return "", "", "", fmt.Errorf("invalid blob location %q: missing container", loc)
	}
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return u.Scheme + "://" + u.Host + "/", parts[0], prefix, nil
}
