package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMisaligned is returned when a positional batch response does not have
// one entry per requested identifier
var ErrMisaligned = errors.New("batch response is not aligned with the request")

// PackageList is the batch request payload: canonical PURL strings in request order
type PackageList []string

// MarshalJSON always writes an array, never null
func (l PackageList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// PackageVersions holds the known versions of one requested identifier
type PackageVersions []PackageRef

// PackageDependencies holds the dependencies of one requested identifier
type PackageDependencies []PackageRef

// PackageDependents holds the dependents of one requested identifier
type PackageDependents []PackageRef

// BatchResult wraps a positional batch response behind a keyed accessor.
// Element i of the response belongs to key i of the request.
type BatchResult[T any] struct {
	keys   []string
	values []T
	index  map[string]int
}

// NewBatchResult pairs request keys with response values by position.
// A duplicated key resolves to its first occurrence.
func NewBatchResult[T any](keys []string, values []T) (BatchResult[T], error) {
	if len(keys) != len(values) {
		return BatchResult[T]{}, fmt.Errorf("%w: requested %d, got %d", ErrMisaligned, len(keys), len(values))
	}

	index := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, dup := index[k]; !dup {
			index[k] = i
		}
	}

	return BatchResult[T]{
		keys:   append([]string(nil), keys...),
		values: append([]T(nil), values...),
		index:  index,
	}, nil
}

// Get returns the result for a request key
func (b BatchResult[T]) Get(key string) (T, bool) {
	i, ok := b.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return b.values[i], true
}

// At returns the key and result at position i
func (b BatchResult[T]) At(i int) (string, T) {
	return b.keys[i], b.values[i]
}

// Len returns the number of entries, duplicates included
func (b BatchResult[T]) Len() int { return len(b.keys) }

// Keys returns the request keys in order
func (b BatchResult[T]) Keys() []string {
	return append([]string(nil), b.keys...)
}
