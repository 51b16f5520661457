// Package util provides version ordering, severity rating and identifier
// helpers shared by the trust resolver clients and CLI.
//
//revive:disable-next-line:var-naming
package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	npm "github.com/aquasecurity/go-npm-version/pkg"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/ortelius/pdvd-trust/model"
	"github.com/ortelius/pdvd-trust/purl"
)

// Ordering selects how version lists are ordered for display
type Ordering string

const (
	// OrderLexical sorts raw version strings byte-wise, descending. This is the default.
	OrderLexical Ordering = "lexical"
	// OrderSemantic sorts with the ecosystem's version rules, descending.
	OrderSemantic Ordering = "semantic"
)

// ParseOrdering converts a flag or config value into an Ordering
func ParseOrdering(s string) (Ordering, error) {
	switch Ordering(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderLexical:
		return OrderLexical, nil
	case OrderSemantic:
		return OrderSemantic, nil
	default:
		return "", fmt.Errorf("unknown version ordering %q (want %s or %s)", s, OrderLexical, OrderSemantic)
	}
}

// VersionedRef is a package reference whose PURL parsed and carries a version
type VersionedRef struct {
	Version string
	Purl    purl.Identifier
	Ref     model.PackageRef
}

// Order applies the given ordering
func Order(o Ordering, refs []model.PackageRef) []VersionedRef {
	if o == OrderSemantic {
		return OrderVersionsSemantic(refs)
	}
	return OrderVersions(refs)
}

// OrderVersions drops refs whose PURL does not parse or has no version and
// sorts the rest by raw version string, descending. The comparison is
// byte-wise, so "2.9.0" sorts before "2.10.0".
func OrderVersions(refs []model.PackageRef) []VersionedRef {
	versions := versioned(refs)
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Version > versions[j].Version
	})
	return versions
}

// OrderVersionsSemantic drops the same refs as OrderVersions and sorts the
// rest newest first using npm, PEP 440 or semver rules based on the PURL type.
// Versions the ecosystem rules cannot parse follow the parsed ones, ordered
// byte-wise descending.
func OrderVersionsSemantic(refs []model.PackageRef) []VersionedRef {
	versions := versioned(refs)
	parsed := make([]bool, len(versions))
	for i, v := range versions {
		parsed[i] = versionParses(v.Purl.Type(), v.Version)
	}

	idx := make([]int, len(versions))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := versions[idx[i]], versions[idx[j]]
		pa, pb := parsed[idx[i]], parsed[idx[j]]
		switch {
		case pa != pb:
			return pa
		case !pa:
			return a.Version > b.Version
		case a.Purl.Type() != b.Purl.Type():
			return a.Purl.Type() < b.Purl.Type()
		default:
			return CompareVersions(a.Purl.Type(), a.Version, b.Version) > 0
		}
	})

	out := make([]VersionedRef, 0, len(versions))
	for _, i := range idx {
		out = append(out, versions[i])
	}
	return out
}

// versionParses reports whether v is valid under the rules CompareVersions
// applies for purlType
func versionParses(purlType, v string) bool {
	var err error
	switch strings.ToLower(purlType) {
	case "npm":
		_, err = npm.NewVersion(v)
	case "pypi":
		_, err = pep440.Parse(v)
	default:
		_, err = semver.NewVersion(v)
	}
	return err == nil
}

// CompareVersions compares two versions of the same ecosystem and returns
// -1, 0 or 1. npm and pypi use their own parsers, everything else semver
// with coercion. Unparseable versions compare as strings.
func CompareVersions(purlType, a, b string) int {
	switch strings.ToLower(purlType) {
	case "npm":
		va, errA := npm.NewVersion(a)
		vb, errB := npm.NewVersion(b)
		if errA == nil && errB == nil {
			return compareOrdered(va.LessThan(vb), va.GreaterThan(vb))
		}
	case "pypi":
		va, errA := pep440.Parse(a)
		vb, errB := pep440.Parse(b)
		if errA == nil && errB == nil {
			return compareOrdered(va.LessThan(vb), va.GreaterThan(vb))
		}
	default:
		va, errA := semver.NewVersion(a)
		vb, errB := semver.NewVersion(b)
		if errA == nil && errB == nil {
			return va.Compare(vb)
		}
	}
	return strings.Compare(a, b)
}

func compareOrdered(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

func versioned(refs []model.PackageRef) []VersionedRef {
	out := make([]VersionedRef, 0, len(refs))
	for _, ref := range refs {
		id, err := purl.Parse(ref.Purl)
		if err != nil {
			continue
		}
		version, ok := id.Version()
		if !ok {
			continue
		}
		out = append(out, VersionedRef{Version: version, Purl: id, Ref: ref})
	}
	return out
}
