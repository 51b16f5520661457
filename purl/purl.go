// Package purl provides the package identifier (Package URL) model used by the
// trust resolver. Identifiers are immutable values backed by packageurl-go.
package purl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/package-url/packageurl-go"
)

// ErrInvalidIdentifier is returned for malformed or unparseable package identifiers
var ErrInvalidIdentifier = errors.New("invalid package identifier")

var typePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9.+-]*$`)

// Qualifier is a single key/value qualifier of an identifier
type Qualifier struct {
	Key   string
	Value string
}

// Identifier is an immutable, parsed Package URL
type Identifier struct {
	p packageurl.PackageURL
}

// Option configures an Identifier built with New
type Option func(*packageurl.PackageURL)

// WithNamespace sets the namespace
func WithNamespace(namespace string) Option {
	return func(p *packageurl.PackageURL) { p.Namespace = namespace }
}

// WithVersion sets the version
func WithVersion(version string) Option {
	return func(p *packageurl.PackageURL) { p.Version = version }
}

// WithQualifier appends a qualifier, keeping insertion order
func WithQualifier(key, value string) Option {
	return func(p *packageurl.PackageURL) {
		p.Qualifiers = append(p.Qualifiers, packageurl.Qualifier{Key: key, Value: value})
	}
}

// WithSubpath sets the subpath
func WithSubpath(subpath string) Option {
	return func(p *packageurl.PackageURL) { p.Subpath = subpath }
}

// Parse parses a canonical Package URL string
func Parse(s string) (Identifier, error) {
	p, err := packageurl.FromString(s)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %q: %w", ErrInvalidIdentifier, s, err)
	}
	if p.Type == "" || p.Name == "" {
		return Identifier{}, fmt.Errorf("%w: %q: type and name are required", ErrInvalidIdentifier, s)
	}
	p.Qualifiers = cloneQualifiers(p.Qualifiers)
	return Identifier{p: p}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Identifier {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// New builds an identifier from a type and name plus options.
// The type and name must be non-empty and free of the Package URL separators.
func New(purlType, name string, opts ...Option) (Identifier, error) {
	if purlType == "" || name == "" {
		return Identifier{}, fmt.Errorf("%w: type and name are required", ErrInvalidIdentifier)
	}
	if !typePattern.MatchString(purlType) {
		return Identifier{}, fmt.Errorf("%w: type %q contains reserved characters", ErrInvalidIdentifier, purlType)
	}
	if strings.ContainsAny(name, "/@?#") {
		return Identifier{}, fmt.Errorf("%w: name %q contains reserved characters", ErrInvalidIdentifier, name)
	}

	p := packageurl.PackageURL{Type: strings.ToLower(purlType), Name: name}
	for _, opt := range opts {
		opt(&p)
	}

	seen := make(map[string]bool, len(p.Qualifiers))
	for _, q := range p.Qualifiers {
		if q.Key == "" {
			return Identifier{}, fmt.Errorf("%w: empty qualifier key", ErrInvalidIdentifier)
		}
		if seen[q.Key] {
			return Identifier{}, fmt.Errorf("%w: duplicate qualifier %q", ErrInvalidIdentifier, q.Key)
		}
		seen[q.Key] = true
	}

	// Apply the per-type name and namespace rules Parse applies, so that
	// Parse(id.String()) yields the same identifier.
	canonical := p
	canonical.Qualifiers = cloneQualifiers(p.Qualifiers)
	if err := canonical.Normalize(); err != nil {
		return Identifier{}, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	canonical.Qualifiers = inInsertionOrder(canonical.Qualifiers, p.Qualifiers)

	return Identifier{p: canonical}, nil
}

// inInsertionOrder returns the normalised qualifiers in the order their keys
// were given. Qualifiers dropped by normalisation stay dropped.
func inInsertionOrder(normalised, given packageurl.Qualifiers) packageurl.Qualifiers {
	byKey := normalised.Map()
	out := make(packageurl.Qualifiers, 0, len(normalised))
	for _, q := range given {
		key := strings.ToLower(q.Key)
		if v, ok := byKey[key]; ok {
			out = append(out, packageurl.Qualifier{Key: key, Value: v})
			delete(byKey, key)
		}
	}
	for _, q := range normalised {
		if _, ok := byKey[q.Key]; ok {
			out = append(out, q)
		}
	}
	return out
}

// ParseAll parses a batch of raw strings. Strings that fail to parse are
// returned in rejected instead of failing the whole batch.
func ParseAll(raw []string) (ids []Identifier, rejected []string) {
	ids = make([]Identifier, 0, len(raw))
	for _, s := range raw {
		id, err := Parse(s)
		if err != nil {
			rejected = append(rejected, s)
			continue
		}
		ids = append(ids, id)
	}
	return ids, rejected
}

// Strings formats each identifier to its canonical string, in order
func Strings(ids []Identifier) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// String returns the canonical Package URL form
func (id Identifier) String() string {
	p := id.p
	return p.ToString()
}

// IsZero reports whether the identifier was never parsed or built
func (id Identifier) IsZero() bool {
	return id.p.Type == "" && id.p.Name == ""
}

// Type returns the package type, e.g. "maven"
func (id Identifier) Type() string { return id.p.Type }

// Name returns the package name
func (id Identifier) Name() string { return id.p.Name }

// Namespace returns the namespace and whether one is present
func (id Identifier) Namespace() (string, bool) {
	return id.p.Namespace, id.p.Namespace != ""
}

// Version returns the version and whether one is present
func (id Identifier) Version() (string, bool) {
	return id.p.Version, id.p.Version != ""
}

// Subpath returns the subpath and whether one is present
func (id Identifier) Subpath() (string, bool) {
	return id.p.Subpath, id.p.Subpath != ""
}

// Qualifier returns the value of a qualifier and whether it is present
func (id Identifier) Qualifier(key string) (string, bool) {
	for _, q := range id.p.Qualifiers {
		if q.Key == key {
			return q.Value, true
		}
	}
	return "", false
}

// Qualifiers returns a copy of the qualifiers in the order they were added
func (id Identifier) Qualifiers() []Qualifier {
	out := make([]Qualifier, 0, len(id.p.Qualifiers))
	for _, q := range id.p.Qualifiers {
		out = append(out, Qualifier{Key: q.Key, Value: q.Value})
	}
	return out
}

// Equal compares two identifiers field by field. Qualifiers are compared as a set.
func (id Identifier) Equal(other Identifier) bool {
	if id.p.Type != other.p.Type ||
		id.p.Namespace != other.p.Namespace ||
		id.p.Name != other.p.Name ||
		id.p.Version != other.p.Version ||
		id.p.Subpath != other.p.Subpath ||
		len(id.p.Qualifiers) != len(other.p.Qualifiers) {
		return false
	}
	for _, q := range id.p.Qualifiers {
		v, ok := other.Qualifier(q.Key)
		if !ok || v != q.Value {
			return false
		}
	}
	return true
}

// Label returns a short display label: "namespace : name", or just the name
func (id Identifier) Label() string {
	if ns, ok := id.Namespace(); ok {
		return ns + " : " + id.p.Name
	}
	return id.p.Name
}

// Base strips the version, qualifiers and subpath.
// Example: pkg:maven/io.quarkus/quarkus-core@2.16.2.Final?type=jar -> pkg:maven/io.quarkus/quarkus-core
func (id Identifier) Base() Identifier {
	return Identifier{p: packageurl.PackageURL{
		Type:      id.p.Type,
		Namespace: id.p.Namespace,
		Name:      id.p.Name,
	}}
}

// WithVersion returns a copy of the identifier carrying the given version
func (id Identifier) WithVersion(version string) Identifier {
	p := id.p
	p.Qualifiers = cloneQualifiers(id.p.Qualifiers)
	p.Version = version
	return Identifier{p: p}
}

// MarshalText implements encoding.TextMarshaler
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func cloneQualifiers(qq packageurl.Qualifiers) packageurl.Qualifiers {
	if len(qq) == 0 {
		return nil
	}
	out := make(packageurl.Qualifiers, len(qq))
	copy(out, qq)
	return out
}
