// Package backend provides the clients that resolve package and vulnerability
// information against the trust catalog service.
//
// Construct one Backend at startup and hand it to NewPackageService and
// NewVulnerabilityService; both clients are safe for concurrent use.
package backend

import (
	"fmt"
	"net/url"
)

// Backend is a validated base address of the catalog service
type Backend struct {
	url *url.URL
}

// New validates base as an absolute network address
func New(base string) (*Backend, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidURL, base, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, base)
	}
	return &Backend{url: u}, nil
}

// Resolve joins a relative API path onto the base address
func (b *Backend) Resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q: %w", ErrInvalidURL, path, err)
	}
	return b.url.ResolveReference(ref), nil
}

// URL returns a copy of the base address
func (b *Backend) URL() *url.URL {
	u := *b.url
	return &u
}

func (b *Backend) String() string {
	return b.url.String()
}
