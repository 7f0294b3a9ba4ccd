package query

import "github.com/pacsforge/qido/internal/dcm"

func patientOps(ctx *Context) levelOps {
	return levelOps{
		restrict:      func() []Predicate { return PatientPredicates(ctx) },
		countRestrict: func() []Predicate { return PatientPredicates(ctx) },
		countFrom:     func() string { return fromPatient },
		order:         func() []OrderBy { return OrderPatients(ctx.OrderByTags) },
		from:          fromPatient,
		projection:    patientProjection,
		toAttributes:  patientToAttributes,
	}
}

func patientToAttributes(q *Query, row map[string]any) (*dcm.Attributes, error) {
	numStudies, _ := pathInt(row, "patient.numberOfStudies")
	if q.ctx.OnlyWithStudies && numStudies == 0 {
		return nil, nil
	}
	attrs, err := dcm.DecodeBlob(pathBytes(row, "patient.encodedAttributes"))
	if err != nil {
		return nil, err
	}
	attrs.SetInt(dcm.NumberOfPatientRelatedStudies, dcm.VRIS, numStudies)

	ids := q.ctx.Identifiers
	if s := pathString(row, "patient.subjectId"); s != "" {
		ids.Subject = s
	}
	addExtraAttributes(attrs, ids, "")
	return attrs, nil
}
