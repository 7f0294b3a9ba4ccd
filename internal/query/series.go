package query

import "github.com/pacsforge/qido/internal/dcm"

// seriesListProjection joins in everything the ancestor merge needs: the
// study columns and the patient blob.
var seriesListProjection = concatPaths(seriesProjection, studyProjection, []string{
	"patient.encodedAttributes",
})

func seriesOps(ctx *Context) levelOps {
	return levelOps{
		restrict:      func() []Predicate { return SeriesPredicates(ctx) },
		countRestrict: func() []Predicate { return SeriesPredicates(ctx) },
		countFrom:     func() string { return fromSeries },
		order:         func() []OrderBy { return OrderSeries(ctx.OrderByTags) },
		from:          fromSeries,
		projection:    seriesListProjection,
		toAttributes:  seriesToAttributes,
	}
}

func seriesToAttributes(q *Query, row map[string]any) (*dcm.Attributes, error) {
	numInstances, _ := pathInt(row, "series.numberOfSeriesRelatedInstances")
	if numInstances == 0 {
		return nil, nil
	}
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

	ids := q.ctx.Identifiers
	if s := pathString(row, "study.sessionId"); s != "" {
		ids.Session = s
	}
	addExtraAttributes(attrs, ids, pathString(row, "series.scanId"))
	return attrs, nil
}

// studyAttributesFor returns the merged patient+study attribute set of the
// row's study, built once per study and reused for every series under it.
func (q *Query) studyAttributesFor(row map[string]any) (*dcm.Attributes, error) {
	pk, ok := pathInt64(row, "study.pk")
	if !ok {
		return nil, ErrAncestorMissing
	}
	if cached, ok := q.studyAttrs[pk]; ok {
		return cached, nil
	}
	patAttrs, err := dcm.DecodeBlob(pathBytes(row, "patient.encodedAttributes"))
	if err != nil {
		return nil, err
	}
	styAttrs, err := dcm.DecodeBlob(pathBytes(row, "study.encodedAttributes"))
	if err != nil {
		return nil, err
	}
	dcm.UnifyCharacterSets(patAttrs, styAttrs)

	attrs := dcm.New()
	attrs.AddAll(patAttrs, true)
	attrs.AddAll(styAttrs, true)
	addStudyQRAttrs(attrs, row)

	if q.studyAttrs == nil {
		q.studyAttrs = make(map[int64]*dcm.Attributes)
	}
	q.studyAttrs[pk] = attrs
	return attrs, nil
}

func addSeriesQRAttrs(attrs *dcm.Attributes, row map[string]any) {
	numInstances, _ := pathInt(row, "series.numberOfSeriesRelatedInstances")
	attrs.SetInt(dcm.NumberOfSeriesRelatedInstances, dcm.VRIS, numInstances)
	if ts := dcm.SplitValues(pathString(row, "series.availableTransferSyntaxUid")); ts != nil {
		attrs.SetString(dcm.AvailableTransferSyntaxUID, dcm.VRUI, ts...)
	}
}
