package query

import "github.com/pacsforge/qido/internal/dcm"

// Order assemblers. Each level tries the ancestor chain first, then its
// own tag set; a tag no assembler recognizes contributes no sort term and
// is silently dropped.

func orderPatient(t OrderByTag, list []OrderBy) ([]OrderBy, bool) {
	switch t.Tag {
	case dcm.PatientName:
		return append(list, OrderBy{Path: "patient.patientName", Desc: t.Desc}), true
	case dcm.PatientSex:
		return append(list, OrderBy{Path: "patient.patientSex", Desc: t.Desc}), true
	case dcm.PatientBirthDate:
		return append(list, OrderBy{Path: "patient.patientBirthDate", Desc: t.Desc}), true
	}
	return list, false
}

func orderStudy(t OrderByTag, list []OrderBy) ([]OrderBy, bool) {
	if out, ok := orderPatient(t, list); ok {
		return out, true
	}
	switch t.Tag {
	case dcm.StudyInstanceUID:
		return append(list, OrderBy{Path: "study.studyInstanceUid", Desc: t.Desc}), true
	case dcm.StudyID:
		return append(list, OrderBy{Path: "study.studyId", Desc: t.Desc}), true
	case dcm.StudyDate:
		return append(list, OrderBy{Path: "study.studyDate", Desc: t.Desc}), true
	case dcm.StudyTime:
		return append(list, OrderBy{Path: "study.studyTime", Desc: t.Desc}), true
	case dcm.StudyDescription:
		return append(list, OrderBy{Path: "study.studyDescription", Desc: t.Desc}), true
	case dcm.AccessionNumber:
		return append(list, OrderBy{Path: "study.accessionNumber", Desc: t.Desc}), true
	}
	return list, false
}

func orderSeries(t OrderByTag, list []OrderBy) ([]OrderBy, bool) {
	if out, ok := orderStudy(t, list); ok {
		return out, true
	}
	switch t.Tag {
	case dcm.SeriesInstanceUID:
		return append(list, OrderBy{Path: "series.seriesInstanceUid", Desc: t.Desc}), true
	case dcm.SeriesNumber:
		return append(list, OrderBy{Path: "series.seriesNumber", Desc: t.Desc}), true
	case dcm.Modality:
		return append(list, OrderBy{Path: "series.modality", Desc: t.Desc}), true
	case dcm.BodyPartExamined:
		return append(list, OrderBy{Path: "series.bodyPartExamined", Desc: t.Desc}), true
	case dcm.Laterality:
		return append(list, OrderBy{Path: "series.laterality", Desc: t.Desc}), true
	case dcm.PerformedProcedureStepStartDate:
		return append(list, OrderBy{Path: "series.performedProcedureStepStartDate", Desc: t.Desc}), true
	case dcm.PerformedProcedureStepStartTime:
		return append(list, OrderBy{Path: "series.performedProcedureStepStartTime", Desc: t.Desc}), true
	case dcm.SeriesDescription:
		return append(list, OrderBy{Path: "series.seriesDescription", Desc: t.Desc}), true
	case dcm.StationName:
		return append(list, OrderBy{Path: "series.stationName", Desc: t.Desc}), true
	case dcm.InstitutionName:
		return append(list, OrderBy{Path: "series.institutionName", Desc: t.Desc}), true
	case dcm.InstitutionalDepartmentName:
		return append(list, OrderBy{Path: "series.institutionalDepartmentName", Desc: t.Desc}), true
	}
	return list, false
}

func orderInstance(t OrderByTag, list []OrderBy) ([]OrderBy, bool) {
	if out, ok := orderSeries(t, list); ok {
		return out, true
	}
	switch t.Tag {
	case dcm.SOPInstanceUID:
		return append(list, OrderBy{Path: "instance.sopInstanceUid", Desc: t.Desc}), true
	case dcm.SOPClassUID:
		return append(list, OrderBy{Path: "instance.sopClassUid", Desc: t.Desc}), true
	case dcm.InstanceNumber:
		return append(list, OrderBy{Path: "instance.instanceNumber", Desc: t.Desc}), true
	case dcm.ContentDate:
		return append(list, OrderBy{Path: "instance.contentDate", Desc: t.Desc}), true
	case dcm.ContentTime:
		return append(list, OrderBy{Path: "instance.contentTime", Desc: t.Desc}), true
	}
	return list, false
}

// OrderPatients resolves the requested sort tags against the patient tag
// set.
func OrderPatients(tags []OrderByTag) []OrderBy {
	var list []OrderBy
	for _, t := range tags {
		list, _ = orderPatient(t, list)
	}
	return list
}

// OrderStudies resolves the requested sort tags against the study chain.
func OrderStudies(tags []OrderByTag) []OrderBy {
	var list []OrderBy
	for _, t := range tags {
		list, _ = orderStudy(t, list)
	}
	return list
}

// OrderSeries resolves the requested sort tags against the series chain.
func OrderSeries(tags []OrderByTag) []OrderBy {
	var list []OrderBy
	for _, t := range tags {
		list, _ = orderSeries(t, list)
	}
	return list
}

// OrderInstances resolves the requested sort tags against the instance
// chain.
func OrderInstances(tags []OrderByTag) []OrderBy {
	var list []OrderBy
	for _, t := range tags {
		list, _ = orderInstance(t, list)
	}
	return list
}
