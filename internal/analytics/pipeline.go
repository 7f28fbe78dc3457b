package analytics

import (
	"sort"

	"github.com/gjayprakash/commerce-backend/internal/apperr"
)

// The five reports are compositions of the same small set of stages: filter,
// flatten (unwind), key-join, group-by, sort, paginate. Keeping the stages
// generic keeps each report a readable pipeline and testable on its own.

// Filter returns the elements of in for which keep is true, preserving order.
func Filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// FlatMap expands every element of in into zero or more outputs, preserving order.
func FlatMap[T, U any](in []T, expand func(T) []U) []U {
	var out []U
	for _, v := range in {
		out = append(out, expand(v)...)
	}
	return out
}

// IndexBy builds a lookup map from key to element. Later elements win on
// duplicate keys.
func IndexBy[K comparable, T any](in []T, key func(T) K) map[K]T {
	out := make(map[K]T, len(in))
	for _, v := range in {
		out[key(v)] = v
	}
	return out
}

// Group is one bucket produced by GroupBy.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupBy buckets in by key. Buckets appear in first-seen key order, so the
// result is deterministic for a fixed input order.
func GroupBy[K comparable, T any](in []T, key func(T) K) []Group[K, T] {
	index := make(map[K]int)
	var out []Group[K, T]
	for _, v := range in {
		k := key(v)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group[K, T]{Key: k})
		}
		out[i].Items = append(out[i].Items, v)
	}
	return out
}

// SortBy returns a sorted copy of in. The sort is stable so equal elements
// keep their input order.
func SortBy[T any](in []T, less func(a, b T) bool) []T {
	out := make([]T, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Pagination is the envelope returned alongside any paginated list.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NormalizePaging applies the defaults (page 1, limit 10) to unset values and
// rejects non-positive ones.
func NormalizePaging(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 10
	}
	if page < 0 {
		return 0, 0, apperr.InvalidArgumentf("page must be a positive integer, got %d", page)
	}
	if limit < 0 {
		return 0, 0, apperr.InvalidArgumentf("limit must be a positive integer, got %d", limit)
	}
	return page, limit, nil
}

// Paginate applies offset/limit pagination (skip = (page-1)*limit) and
// returns the page plus its envelope. A page past the end yields an empty
// slice with the envelope still reporting the full total.
func Paginate[T any](in []T, page, limit int) ([]T, Pagination) {
	total := len(in)
	p := Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
	start := (page - 1) * limit
	if start >= total {
		return []T{}, p
	}
	end := start + limit
	if end > total {
		end = total
	}
	return in[start:end], p
}
