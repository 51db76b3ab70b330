// Package services provides repository interfaces and SQLite implementations
// for data access. This layer bridges the raw SQLite store with the records
// HTTP API.
package services

import "errors"

// Limits applied by normalizeListOptions.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ListOptions controls the window returned by list queries.
type ListOptions struct {
	Limit  int // Max results (negative means DefaultLimit, capped at MaxLimit).
	Offset int // Number of results to skip.
}

// Sentinel errors returned by repositories.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// normalizeListOptions applies defaults and caps to list options.
// A zero limit is kept: it asks for an empty window.
func normalizeListOptions(opts ListOptions) ListOptions {
	if opts.Limit < 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
