package query

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pacsforge/qido/internal/dcm"
)

func instanceOps(ctx *Context) levelOps {
	return levelOps{
		restrict:      func() []Predicate { return InstancePredicates(ctx) },
		countRestrict: func() []Predicate { return InstancePredicates(ctx) },
		countFrom:     func() string { return fromInstance },
		order:         func() []OrderBy { return OrderInstances(ctx.OrderByTags) },
		from:          fromInstance,
		projection:    instanceProjection,
		toAttributes:  instanceToAttributes,
	}
}

// seriesRecord caches everything the instance merge needs from an
// ancestor series: the merged patient+study+series attribute set and the
// row-sourced identifiers.
type seriesRecord struct {
	attrs     *dcm.Attributes
	sessionID string
	scanID    string
}

func instanceToAttributes(q *Query, row map[string]any) (*dcm.Attributes, error) {
	seriesPK, ok := pathInt64(row, "series.pk")
	if !ok {
		return nil, ErrAncestorMissing
	}
	rec, err := q.seriesRecordFor(seriesPK)
	if err != nil {
		return nil, err
	}
	instAttrs, err := dcm.DecodeBlob(pathBytes(row, "instance.encodedAttributes"))
	if err != nil {
		return nil, err
	}
	dcm.UnifyCharacterSets(rec.attrs, instAttrs)

	attrs := dcm.New()
	attrs.AddAll(rec.attrs, true)
	attrs.AddAll(instAttrs, true)

	ids := q.ctx.Identifiers
	if rec.sessionID != "" {
		ids.Session = rec.sessionID
	}
	addExtraAttributes(attrs, ids, rec.scanID)
	return attrs, nil
}

// seriesRecordFor loads the ancestor series of an instance row, merged
// with its own ancestors. The instance projection carries only the series
// key, so the ancestor columns come from a second lookup, cached per
// series for the lifetime of the query.
func (q *Query) seriesRecordFor(pk int64) (*seriesRecord, error) {
	if rec, ok := q.seriesAttrs[pk]; ok {
		return rec, nil
	}
	stmt, args := buildListSQL(seriesListProjection, fromSeries,
		[]Predicate{Compare{Path: "series.pk", Op: OpEq, Value: pk}}, nil, 0, 0)

	vals := make([]any, len(seriesListProjection))
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := q.db.QueryRow(stmt, args...).Scan(ptrs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: series %d", ErrAncestorMissing, pk)
		}
		return nil, fmt.Errorf("load series %d: %w", pk, err)
	}
	row := mapRowToPaths(vals, seriesListProjection)

	studyAttrs, err := q.studyAttributesFor(row)
	if err != nil {
		return nil, err
	}
	serAttrs, err := dcm.DecodeBlob(pathBytes(row, "series.encodedAttributes"))
	if err != nil {
		return nil, err
	}
	dcm.UnifyCharacterSets(studyAttrs, serAttrs)

	attrs := dcm.New()
	attrs.AddAll(studyAttrs, true)
	attrs.AddAll(serAttrs, true)
	addSeriesQRAttrs(attrs, row)

	rec := &seriesRecord{
		attrs:     attrs,
		sessionID: pathString(row, "study.sessionId"),
		scanID:    pathString(row, "series.scanId"),
	}
	if q.seriesAttrs == nil {
		q.seriesAttrs = make(map[int64]*seriesRecord)
	}
	q.seriesAttrs[pk] = rec
	return rec, nil
}
