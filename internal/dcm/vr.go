package dcm

// VR is a DICOM value representation.
type VR string

const (
	VRAE VR = "AE"
	VRCS VR = "CS"
	VRDA VR = "DA"
	VRDT VR = "DT"
	VRIS VR = "IS"
	VRLO VR = "LO"
	VRLT VR = "LT"
	VRPN VR = "PN"
	VRSH VR = "SH"
	VRST VR = "ST"
	VRTM VR = "TM"
	VRUI VR = "UI"
	VRUL VR = "UL"
	VRUT VR = "UT"
)

// CaseInsensitive reports whether attribute matching for this VR ignores
// case per PS3.18: person names and free-text fields do, coded values and
// identifiers do not.
func (vr VR) CaseInsensitive() bool {
	switch vr {
	case VRPN, VRLO, VRLT, VRSH, VRST, VRUT:
		return true
	}
	return false
}

var vrByTag = map[Tag]VR{
	SpecificCharacterSet:            VRCS,
	SOPClassUID:                     VRUI,
	SOPInstanceUID:                  VRUI,
	StudyDate:                       VRDA,
	ContentDate:                     VRDA,
	StudyTime:                       VRTM,
	ContentTime:                     VRTM,
	AccessionNumber:                 VRSH,
	QueryRetrieveLevel:              VRCS,
	RetrieveAETitle:                 VRAE,
	InstanceAvailability:            VRCS,
	Modality:                        VRCS,
	ModalitiesInStudy:               VRCS,
	SOPClassesInStudy:               VRUI,
	InstitutionName:                 VRLO,
	ReferringPhysicianName:          VRPN,
	StationName:                     VRSH,
	StudyDescription:                VRLO,
	SeriesDescription:               VRLO,
	InstitutionalDepartmentName:     VRLO,
	AvailableTransferSyntaxUID:      VRUI,
	PatientName:                     VRPN,
	PatientID:                       VRLO,
	IssuerOfPatientID:               VRLO,
	PatientBirthDate:                VRDA,
	PatientSex:                      VRCS,
	BodyPartExamined:                VRCS,
	StudyInstanceUID:                VRUI,
	SeriesInstanceUID:               VRUI,
	StudyID:                         VRSH,
	SeriesNumber:                    VRIS,
	InstanceNumber:                  VRIS,
	Laterality:                      VRCS,
	NumberOfPatientRelatedStudies:   VRIS,
	NumberOfStudyRelatedSeries:      VRIS,
	NumberOfStudyRelatedInstances:   VRIS,
	NumberOfSeriesRelatedInstances:  VRIS,
	PerformedProcedureStepStartDate: VRDA,
	PerformedProcedureStepStartTime: VRTM,
}

// VROf returns the dictionary VR for a tag, defaulting to LO for tags the
// dictionary does not cover.
func VROf(t Tag) VR {
	if vr, ok := vrByTag[t]; ok {
		return vr
	}
	return VRLO
}
