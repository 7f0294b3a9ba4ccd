// Package dcm models the small slice of DICOM needed by the query engine:
// tags, value representations, multi-valued attribute sets and the DA/TM/DT
// date formats used for range matching.
package dcm

import "fmt"

// Tag identifies a DICOM attribute as (group << 16) | element.
type Tag uint32

// Group returns the group number of the tag.
func (t Tag) Group() uint16 { return uint16(t >> 16) }

// Element returns the element number of the tag.
func (t Tag) Element() uint16 { return uint16(t & 0xffff) }

// String renders the tag in the conventional (gggg,eeee) form.
func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group(), t.Element())
}

// Standard tags consumed by the matching engine.
const (
	SpecificCharacterSet            Tag = 0x00080005
	SOPClassUID                     Tag = 0x00080016
	SOPInstanceUID                  Tag = 0x00080018
	StudyDate                       Tag = 0x00080020
	ContentDate                     Tag = 0x00080023
	StudyTime                       Tag = 0x00080030
	ContentTime                     Tag = 0x00080033
	AccessionNumber                 Tag = 0x00080050
	QueryRetrieveLevel              Tag = 0x00080052
	RetrieveAETitle                 Tag = 0x00080054
	InstanceAvailability            Tag = 0x00080056
	Modality                        Tag = 0x00080060
	ModalitiesInStudy               Tag = 0x00080061
	SOPClassesInStudy               Tag = 0x00080062
	InstitutionName                 Tag = 0x00080080
	ReferringPhysicianName          Tag = 0x00080090
	StationName                     Tag = 0x00081010
	StudyDescription                Tag = 0x00081030
	SeriesDescription               Tag = 0x0008103E
	InstitutionalDepartmentName     Tag = 0x00081040
	AvailableTransferSyntaxUID      Tag = 0x00083002
	PatientName                     Tag = 0x00100010
	PatientID                       Tag = 0x00100020
	IssuerOfPatientID               Tag = 0x00100021
	PatientBirthDate                Tag = 0x00100030
	PatientSex                      Tag = 0x00100040
	BodyPartExamined                Tag = 0x00180015
	StudyInstanceUID                Tag = 0x0020000D
	SeriesInstanceUID               Tag = 0x0020000E
	StudyID                         Tag = 0x00200010
	SeriesNumber                    Tag = 0x00200011
	InstanceNumber                  Tag = 0x00200013
	Laterality                      Tag = 0x00200060
	NumberOfPatientRelatedStudies   Tag = 0x00201200
	NumberOfStudyRelatedSeries      Tag = 0x00201206
	NumberOfStudyRelatedInstances   Tag = 0x00201208
	NumberOfSeriesRelatedInstances  Tag = 0x00201209
	PerformedProcedureStepStartDate Tag = 0x00400244
	PerformedProcedureStepStartTime Tag = 0x00400245
)

// Private identifier block. The archive stamps every match with the
// identifiers of the project/subject/session (and scan, below series level)
// the matched object belongs to.
const (
	PrivateCreator = "PACSFORGE"

	PrivateCreatorTag Tag = 0x77510010
	PrivateProjectID  Tag = 0x77511001
	PrivateSubjectID  Tag = 0x77511002
	PrivateSessionID  Tag = 0x77511003
	PrivateScanID     Tag = 0x77511004
)

var keywords = map[Tag]string{
	SpecificCharacterSet:            "SpecificCharacterSet",
	SOPClassUID:                     "SOPClassUID",
	SOPInstanceUID:                  "SOPInstanceUID",
	StudyDate:                       "StudyDate",
	ContentDate:                     "ContentDate",
	StudyTime:                       "StudyTime",
	ContentTime:                     "ContentTime",
	AccessionNumber:                 "AccessionNumber",
	QueryRetrieveLevel:              "QueryRetrieveLevel",
	RetrieveAETitle:                 "RetrieveAETitle",
	InstanceAvailability:            "InstanceAvailability",
	Modality:                        "Modality",
	ModalitiesInStudy:               "ModalitiesInStudy",
	SOPClassesInStudy:               "SOPClassesInStudy",
	InstitutionName:                 "InstitutionName",
	ReferringPhysicianName:          "ReferringPhysicianName",
	StationName:                     "StationName",
	StudyDescription:                "StudyDescription",
	SeriesDescription:               "SeriesDescription",
	InstitutionalDepartmentName:     "InstitutionalDepartmentName",
	AvailableTransferSyntaxUID:      "AvailableTransferSyntaxUID",
	PatientName:                     "PatientName",
	PatientID:                       "PatientID",
	IssuerOfPatientID:               "IssuerOfPatientID",
	PatientBirthDate:                "PatientBirthDate",
	PatientSex:                      "PatientSex",
	BodyPartExamined:                "BodyPartExamined",
	StudyInstanceUID:                "StudyInstanceUID",
	SeriesInstanceUID:               "SeriesInstanceUID",
	StudyID:                         "StudyID",
	SeriesNumber:                    "SeriesNumber",
	InstanceNumber:                  "InstanceNumber",
	Laterality:                      "Laterality",
	NumberOfPatientRelatedStudies:   "NumberOfPatientRelatedStudies",
	NumberOfStudyRelatedSeries:      "NumberOfStudyRelatedSeries",
	NumberOfStudyRelatedInstances:   "NumberOfStudyRelatedInstances",
	NumberOfSeriesRelatedInstances:  "NumberOfSeriesRelatedInstances",
	PerformedProcedureStepStartDate: "PerformedProcedureStepStartDate",
	PerformedProcedureStepStartTime: "PerformedProcedureStepStartTime",
}

var tagsByKeyword = func() map[string]Tag {
	m := make(map[string]Tag, len(keywords))
	for tag, kw := range keywords {
		m[kw] = tag
	}
	return m
}()

// KeywordOf returns the dictionary keyword for a tag, or "" if unknown.
func KeywordOf(t Tag) string { return keywords[t] }

// TagByKeyword resolves a dictionary keyword to its tag.
func TagByKeyword(kw string) (Tag, bool) {
	t, ok := tagsByKeyword[kw]
	return t, ok
}
