package model

import (
	"encoding/json"

	"github.com/ortelius/pdvd-trust/purl"
)

// Package is the resolved catalog record for one package identifier.
// Every field is optional; an opaque record with no identifier is valid.
type Package struct {
	Purl            string             `json:"purl,omitempty" yaml:"purl,omitempty"`
	Href            string             `json:"href,omitempty" yaml:"href,omitempty"`
	Trusted         Trust              `json:"trusted,omitzero" yaml:"trusted,omitempty"`
	TrustedVersions []PackageRef       `json:"trustedVersions,omitempty" yaml:"trustedVersions,omitempty"`
	Vulnerabilities []VulnerabilityRef `json:"vulnerabilities,omitempty" yaml:"vulnerabilities,omitempty"`
	Snyk            json.RawMessage    `json:"snyk,omitempty" yaml:"-"`
}

// Identifier parses the package PURL. ok is false when the record has none
// or it does not parse.
func (p Package) Identifier() (id purl.Identifier, ok bool) {
	if p.Purl == "" {
		return purl.Identifier{}, false
	}
	id, err := purl.Parse(p.Purl)
	return id, err == nil
}

// PackageRef is a lightweight pointer to a package, used as a graph edge
type PackageRef struct {
	Purl    string `json:"purl" yaml:"purl"`
	Href    string `json:"href" yaml:"href"`
	Trusted Trust  `json:"trusted,omitzero" yaml:"trusted,omitempty"`
}

// UnmarshalJSON requires purl and href
func (r *PackageRef) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "PackageRef", "purl", "href"); err != nil {
		return err
	}
	type plain PackageRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = PackageRef(v)
	return nil
}

// Identifier parses the reference PURL
func (r PackageRef) Identifier() (purl.Identifier, error) {
	return purl.Parse(r.Purl)
}
