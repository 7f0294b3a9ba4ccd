package query

import "errors"

var (
	// ErrUnsupportedLevel indicates the caller requested a query-retrieve
	// level this engine does not serve. It is raised before any store
	// access.
	ErrUnsupportedLevel = errors.New("unsupported query-retrieve level")

	// ErrAncestorMissing indicates a result row referenced an ancestor that
	// is gone from the store. Silently omitting the ancestor would corrupt
	// the merged attribute set, so the lookup fails instead.
	ErrAncestorMissing = errors.New("ancestor row missing")

	// ErrClosed indicates an execution was attempted on a closed query.
	ErrClosed = errors.New("query is closed")

	// ErrNotListing indicates cursor access without a prior list execution.
	ErrNotListing = errors.New("no list execution is open")
)
