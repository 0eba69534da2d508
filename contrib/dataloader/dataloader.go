// Package dataloader provides generic helpers for batch loading: splitting
// keys into batches and matching batch results back to the requested keys.
//
// The SQL loader of fetch plans uses them to answer one IN query per batch
// of parent keys:
//
//	for _, batch := range dataloader.Chunk(dataloader.Unique(ids), 500) {
//	    rows, _ := query(ctx, batch)
//	    byParent := dataloader.GroupByKey(rows, func(r row) int64 { return r.parent })
//	    for i, children := range dataloader.OrderGroupsByKeys(batch, byParent) {
//	        attach(batch[i], children)
//	    }
//	}
package dataloader

import (
	"errors"
)

// ErrNotFound is returned when an entity is not found in a batch result.
var ErrNotFound = errors.New("dataloader: entity not found")

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// OrderByKeys reorders entities to match the order of requested keys.
// Missing entities are represented as zero values with corresponding errors.
// The result slices have the same length as keys.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// Found reorders entities to match the order of requested keys, leaving
// out keys without an entity.
func Found[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) []V {
	ordered, errs := OrderByKeys(keys, values, keyFn)
	result := ordered[:0]
	for i, v := range ordered {
		if errs[i] == nil {
			result = append(result, v)
		}
	}
	return result
}

// GroupByKey groups entities by a key function, keeping their order within
// each group. Useful for one-to-many links where several rows share a parent.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys reorders grouped entities to match the order of
// requested keys. result[i] holds the entities of keys[i].
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}

// Unique returns the keys without duplicates, in first-seen order.
func Unique[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	result := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, k)
	}
	return result
}

// Chunk splits keys into batches of at most size keys. A non-positive size
// returns a single batch.
func Chunk[K any](keys []K, size int) [][]K {
	if len(keys) == 0 {
		return nil
	}
	if size <= 0 || len(keys) <= size {
		return [][]K{keys}
	}
	batches := make([][]K, 0, (len(keys)+size-1)/size)
	for size < len(keys) {
		keys, batches = keys[size:], append(batches, keys[:size:size])
	}
	return append(batches, keys)
}
