package query

import (
	"database/sql"
	"fmt"

	"github.com/pacsforge/qido/internal/dcm"
)

type state int

const (
	stateIdle state = iota
	stateCounting
	stateListing
	stateClosed
)

// levelOps binds a query-retrieve level to its restrictions, ordering,
// join structure, projection and row reconstruction.
type levelOps struct {
	restrict      func() []Predicate
	countRestrict func() []Predicate
	countFrom     func() string
	order         func() []OrderBy
	from          string
	projection    []string
	toAttributes  func(q *Query, row map[string]any) (*dcm.Attributes, error)
}

// Query executes one request against the store: first optionally a count,
// then a paged list walked through a forward-only cursor. Executions share
// the Context's criteria; the list execution is single-pass.
type Query struct {
	ctx *Context
	db  *sql.DB
	ops levelOps

	state state
	count int64

	rows     *sql.Rows
	advanced bool
	hasNext  bool

	// Per-request ancestor caches. Rows of one execution frequently share
	// an ancestor; its merged attribute set is built once.
	studyAttrs  map[int64]*dcm.Attributes
	seriesAttrs map[int64]*seriesRecord
}

// New builds a query for the context's level.
func New(ctx *Context, db *sql.DB) (*Query, error) {
	q := &Query{ctx: ctx, db: db}
	switch ctx.Level {
	case LevelPatient:
		q.ops = patientOps(ctx)
	case LevelStudy:
		q.ops = studyOps(ctx)
	case LevelSeries:
		q.ops = seriesOps(ctx)
	case LevelImage:
		q.ops = instanceOps(ctx)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedLevel, ctx.Level)
	}
	return q, nil
}

// ExecuteCountQuery runs the count execution. It ignores offset and limit
// and must precede any list execution.
func (q *Query) ExecuteCountQuery() error {
	switch q.state {
	case stateClosed:
		return ErrClosed
	case stateCounting, stateListing:
		return fmt.Errorf("count execution must come first")
	}
	stmt, args := buildCountSQL(q.ops.countFrom(), q.ops.countRestrict())
	row := q.db.QueryRow(stmt, args...)
	if err := row.Scan(&q.count); err != nil {
		return fmt.Errorf("count query: %w", err)
	}
	q.state = stateCounting
	return nil
}

// Count returns the result of the count execution.
func (q *Query) Count() int64 { return q.count }

// ExecuteQuery runs the list execution with the given limit; a limit of 0
// falls back to the context's. Any cursor from a prior execution is
// released first.
func (q *Query) ExecuteQuery(limit int) error {
	if q.state == stateClosed {
		return ErrClosed
	}
	if err := q.releaseRows(); err != nil {
		return err
	}
	if limit <= 0 {
		limit = q.ctx.Limit
	}
	stmt, args := buildListSQL(q.ops.projection, q.ops.from, q.ops.restrict(), q.ops.order(), q.ctx.Offset, limit)
	rows, err := q.db.Query(stmt, args...)
	if err != nil {
		return fmt.Errorf("list query: %w", err)
	}
	q.rows = rows
	q.advanced = false
	q.hasNext = false
	q.state = stateListing
	return nil
}

// HasMoreMatches reports whether the cursor has another row. It advances
// the cursor at most one row ahead; NextMatch consumes that row.
func (q *Query) HasMoreMatches() (bool, error) {
	if q.state == stateClosed {
		return false, ErrClosed
	}
	if q.state != stateListing {
		return false, ErrNotListing
	}
	if q.advanced {
		return q.hasNext, nil
	}
	q.hasNext = q.rows.Next()
	q.advanced = true
	if !q.hasNext {
		if err := q.rows.Err(); err != nil {
			return false, fmt.Errorf("list cursor: %w", err)
		}
	}
	return q.hasNext, nil
}

// NextMatch reconstructs the attribute set of the next row. A (nil, nil)
// return is a discarded row, not the end of the cursor; callers decide the
// end with HasMoreMatches.
func (q *Query) NextMatch() (*dcm.Attributes, error) {
	more, err := q.HasMoreMatches()
	if err != nil {
		return nil, err
	}
	if !more {
		return nil, ErrNotListing
	}
	q.advanced = false

	vals := make([]any, len(q.ops.projection))
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := q.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan match: %w", err)
	}
	return q.ops.toAttributes(q, mapRowToPaths(vals, q.ops.projection))
}

// Adjust narrows a match to the context's return keys, supplementing
// absent ones empty. A nil return list passes the match through; a nil
// match stays nil.
func (q *Query) Adjust(match *dcm.Attributes) *dcm.Attributes {
	if match == nil {
		return nil
	}
	if q.ctx.ReturnKeys == nil {
		return match
	}
	out := dcm.New()
	out.AddSelected(match, q.ctx.ReturnKeys)
	out.SupplementEmpty(q.ctx.ReturnKeys)
	return out
}

func (q *Query) releaseRows() error {
	if q.rows == nil {
		return nil
	}
	err := q.rows.Close()
	q.rows = nil
	q.advanced = false
	q.hasNext = false
	if err != nil {
		return fmt.Errorf("release cursor: %w", err)
	}
	return nil
}

// Close releases the cursor and seals the query. Closing twice is a no-op.
func (q *Query) Close() error {
	if q.state == stateClosed {
		return nil
	}
	err := q.releaseRows()
	q.state = stateClosed
	return err
}

// addExtraAttributes stamps the archive coordinates and availability onto
// a reconstructed match. Identifiers sourced from the row (subject,
// session, scan) override the request-scoped ones; scanID is empty above
// the series level.
func addExtraAttributes(attrs *dcm.Attributes, ids Identifiers, scanID string) {
	attrs.SetString(dcm.RetrieveAETitle, dcm.VRAE, ids.Project)
	attrs.SetString(dcm.InstanceAvailability, dcm.VRCS, "ONLINE")
	attrs.SetString(dcm.PrivateCreatorTag, dcm.VRLO, dcm.PrivateCreator)
	if ids.Project != "" {
		attrs.SetString(dcm.PrivateProjectID, dcm.VRLO, ids.Project)
	}
	if ids.Subject != "" {
		attrs.SetString(dcm.PrivateSubjectID, dcm.VRLO, ids.Subject)
	}
	if ids.Session != "" {
		attrs.SetString(dcm.PrivateSessionID, dcm.VRLO, ids.Session)
	}
	if scanID != "" {
		attrs.SetString(dcm.PrivateScanID, dcm.VRLO, scanID)
	}
}
