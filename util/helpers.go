// Package util provides utility functions for working with Package URLs (PURLs)
// and OSV ecosystem names.
//
//revive:disable-next-line:var-naming
package util

import (
	"strings"

	"github.com/ortelius/pdvd-trust/purl"
)

// IsEmpty checks if a string is empty or contains only whitespace
func IsEmpty(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// IsNotEmpty checks if a string is not empty
func IsNotEmpty(s string) bool {
	return !IsEmpty(s)
}

// EcosystemToPurlType converts OSV ecosystem to PURL type
func EcosystemToPurlType(ecosystem string) string {
	mapping := map[string]string{
		"npm":        "npm",
		"PyPI":       "pypi",
		"Maven":      "maven",
		"Go":         "golang",
		"NuGet":      "nuget",
		"RubyGems":   "gem",
		"crates.io":  "cargo",
		"Packagist":  "composer",
		"Pub":        "pub",
		"CocoaPods":  "cocoapods",
		"Hex":        "hex",
		"Alpine":     "apk",
		"Wolfi":      "apk",
		"Chainguard": "apk",
		"Debian":     "deb",
		"Ubuntu":     "deb",
	}

	// Try exact match first
	if purlType, exists := mapping[ecosystem]; exists {
		return purlType
	}

	// Fallback: try case-insensitive
	for key, value := range mapping {
		if strings.EqualFold(key, ecosystem) {
			return value
		}
	}

	// Last resort: return lowercase ecosystem
	return strings.ToLower(ecosystem)
}

// IdentifierFromEcosystem builds an identifier from an OSV ecosystem and
// package coordinates. Empty namespace and version are left out.
// Example: ("Maven", "io.quarkus", "quarkus-core", "2.16.2.Final") -> pkg:maven/io.quarkus/quarkus-core@2.16.2.Final
func IdentifierFromEcosystem(ecosystem, namespace, name, version string) (purl.Identifier, error) {
	var opts []purl.Option
	if IsNotEmpty(namespace) {
		opts = append(opts, purl.WithNamespace(strings.TrimSpace(namespace)))
	}
	if IsNotEmpty(version) {
		opts = append(opts, purl.WithVersion(strings.TrimSpace(version)))
	}
	return purl.New(EcosystemToPurlType(ecosystem), strings.TrimSpace(name), opts...)
}
