package interfaces

import (
	"context"
	"fmt"
	"net/url"
)

// StateStore persists the factory's durable state as one opaque snapshot.
type StateStore interface {
	// Load returns the latest snapshot, or ErrStateNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the latest snapshot.
	Save(ctx context.Context, data []byte) error

	// Available reports whether the store can currently be reached.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this store.
	LocationURI() string
}

// StateStoreLocation represents the URI of a state store.
type StateStoreLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
}

// NewStateStoreLocation parses and validates a state store URI.
func NewStateStoreLocation(uri string) (StateStoreLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StateStoreLocation{}, fmt.Errorf("invalid URI format: %w", err)
	}

	switch parsed.Scheme {
	case "file", "s3", "postgres", "vault":
	default:
		return StateStoreLocation{}, fmt.Errorf("unsupported state store scheme: %q", parsed.Scheme)
	}

	return StateStoreLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
	}, nil
}

// String returns the original URI string.
func (loc StateStoreLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StateStoreLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}
