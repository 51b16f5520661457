package backend

import (
	"context"
	"net/url"

	"github.com/ortelius/pdvd-trust/model"
	"github.com/ortelius/pdvd-trust/purl"
)

const (
	packagePath             = "/api/package"
	packageVersionsPath     = "/api/package/versions"
	packageDependenciesPath = "/api/package/dependencies"
	packageDependentsPath   = "/api/package/dependents"
)

// PackageService resolves package trust information, versions and the
// dependency graph. It holds no mutable state.
type PackageService struct {
	client
}

// NewPackageService binds a package client to the backend
func NewPackageService(b *Backend, opts ...Option) *PackageService {
	return &PackageService{client: newClient(b, opts...)}
}

// Lookup fetches the package record for one identifier
func (s *PackageService) Lookup(ctx context.Context, id purl.Identifier) (model.Package, error) {
	var pkg model.Package
	if err := s.getJSON(ctx, packagePath, url.Values{"purl": {id.String()}}, &pkg); err != nil {
		return model.Package{}, err
	}
	return pkg, nil
}

// LookupBatch resolves many identifiers in one round trip and returns a flat list of references
func (s *PackageService) LookupBatch(ctx context.Context, ids []purl.Identifier) ([]model.PackageRef, error) {
	var refs []model.PackageRef
	if err := s.postJSON(ctx, packagePath, packageList(ids), &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// Versions returns the known versions of each identifier, in request order
func (s *PackageService) Versions(ctx context.Context, ids []purl.Identifier) ([]model.PackageVersions, error) {
	return batchPositional[model.PackageVersions](ctx, s, packageVersionsPath, ids)
}

// Dependencies returns the dependencies of each identifier, in request order
func (s *PackageService) Dependencies(ctx context.Context, ids []purl.Identifier) ([]model.PackageDependencies, error) {
	return batchPositional[model.PackageDependencies](ctx, s, packageDependenciesPath, ids)
}

// Dependents returns the dependents of each identifier, in request order
func (s *PackageService) Dependents(ctx context.Context, ids []purl.Identifier) ([]model.PackageDependents, error) {
	return batchPositional[model.PackageDependents](ctx, s, packageDependentsPath, ids)
}

// VersionsByIdentifier is Versions keyed by the canonical input string
func (s *PackageService) VersionsByIdentifier(ctx context.Context, ids []purl.Identifier) (model.BatchResult[model.PackageVersions], error) {
	return batchKeyed[model.PackageVersions](ctx, s, packageVersionsPath, ids)
}

// DependenciesByIdentifier is Dependencies keyed by the canonical input string
func (s *PackageService) DependenciesByIdentifier(ctx context.Context, ids []purl.Identifier) (model.BatchResult[model.PackageDependencies], error) {
	return batchKeyed[model.PackageDependencies](ctx, s, packageDependenciesPath, ids)
}

// DependentsByIdentifier is Dependents keyed by the canonical input string
func (s *PackageService) DependentsByIdentifier(ctx context.Context, ids []purl.Identifier) (model.BatchResult[model.PackageDependents], error) {
	return batchKeyed[model.PackageDependents](ctx, s, packageDependentsPath, ids)
}

// packageList formats identifiers in request order. Duplicates are kept so the
// response stays aligned with the caller's input.
func packageList(ids []purl.Identifier) model.PackageList {
	return model.PackageList(purl.Strings(ids))
}

// batchPositional posts the identifiers and decodes one entry per identifier
func batchPositional[T any](ctx context.Context, s *PackageService, path string, ids []purl.Identifier) ([]T, error) {
	var out []T
	if err := s.postJSON(ctx, path, packageList(ids), &out); err != nil {
		return nil, err
	}
	if len(out) != len(ids) {
		u, _ := s.backend.Resolve(path)
		_, err := model.NewBatchResult(purl.Strings(ids), out)
		return nil, &DecodeError{URL: u.String(), Err: err}
	}
	return out, nil
}

func batchKeyed[T any](ctx context.Context, s *PackageService, path string, ids []purl.Identifier) (model.BatchResult[T], error) {
	out, err := batchPositional[T](ctx, s, path, ids)
	if err != nil {
		return model.BatchResult[T]{}, err
	}
	return model.NewBatchResult(purl.Strings(ids), out)
}
