package query

import "github.com/pacsforge/qido/internal/dcm"

// studyListProjection adds the patient blob the merge needs to the study
// columns.
var studyListProjection = concatPaths(studyProjection, []string{
	"patient.encodedAttributes",
})

func studyOps(ctx *Context) levelOps {
	return levelOps{
		restrict: func() []Predicate { return StudyPredicates(ctx, true) },
		countRestrict: func() []Predicate {
			return StudyPredicates(ctx, HasPatientLevelCriteria(ctx))
		},
		countFrom: func() string {
			// Without patient criteria the count does not need the join.
			if HasPatientLevelCriteria(ctx) {
				return fromStudy
			}
			return fromStudyOnly
		},
		order:        func() []OrderBy { return OrderStudies(ctx.OrderByTags) },
		from:         fromStudy,
		projection:   studyListProjection,
		toAttributes: studyToAttributes,
	}
}

func studyToAttributes(q *Query, row map[string]any) (*dcm.Attributes, error) {
	numInstances, _ := pathInt(row, "study.numberOfStudyRelatedInstances")
	if numInstances == 0 {
		// A study whose instances are all gone is not a match.
		return nil, nil
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

	ids := q.ctx.Identifiers
	if s := pathString(row, "study.sessionId"); s != "" {
		ids.Session = s
	}
	addExtraAttributes(attrs, ids, "")
	return attrs, nil
}

// addStudyQRAttrs sets the study-level query/retrieve attributes computed
// from the denormalized study columns.
func addStudyQRAttrs(attrs *dcm.Attributes, row map[string]any) {
	numInstances, _ := pathInt(row, "study.numberOfStudyRelatedInstances")
	numSeries, _ := pathInt(row, "study.numberOfStudyRelatedSeries")
	attrs.SetInt(dcm.NumberOfStudyRelatedInstances, dcm.VRIS, numInstances)
	attrs.SetInt(dcm.NumberOfStudyRelatedSeries, dcm.VRIS, numSeries)
	if mods := dcm.SplitValues(pathString(row, "study.modalitiesInStudy")); mods != nil {
		attrs.SetString(dcm.ModalitiesInStudy, dcm.VRCS, mods...)
	}
	if cuids := dcm.SplitValues(pathString(row, "study.sopClassesInStudy")); cuids != nil {
		attrs.SetString(dcm.SOPClassesInStudy, dcm.VRUI, cuids...)
	}
}
