// Package entity defines the stored rows of the imaging hierarchy:
// Patient -> Study -> Series -> Instance. Each row carries its encoded
// attribute blob plus the denormalized scalar columns the matching engine
// queries against.
package entity

// Patient is a stored patient row.
type Patient struct {
	PK                int64
	SubjectID         string
	PatientID         string
	IssuerOfPatientID string
	PatientName       string
	PatientBirthDate  string
	PatientSex        string
	NumberOfStudies   int
	EncodedAttributes []byte
}

// Study is a stored study row.
type Study struct {
	PK        int64
	PatientPK int64
	SessionID string

	StudyInstanceUID string
	StudyID          string
	StudyDate        string
	StudyTime        string
	AccessionNumber  string
	StudyDescription string

	NumberOfStudyRelatedInstances int
	NumberOfStudyRelatedSeries    int
	ModalitiesInStudy             string
	SOPClassesInStudy             string

	EncodedAttributes []byte
}

// Series is a stored series row.
type Series struct {
	PK      int64
	StudyPK int64
	ScanID  string

	SeriesInstanceUID string
	SeriesNumber      int
	Modality          string
	BodyPartExamined  string
	Laterality        string
	SeriesDescription string
	StationName       string
	InstitutionName   string

	InstitutionalDepartmentName     string
	PerformedProcedureStepStartDate string
	PerformedProcedureStepStartTime string

	NumberOfSeriesRelatedInstances int
	AvailableTransferSyntaxUID     string
	SOPClassUID                    string
	SOPClassesInSeries             string

	EncodedAttributes []byte
}

// Instance is a stored SOP instance row.
type Instance struct {
	PK       int64
	SeriesPK int64

	SOPInstanceUID string
	SOPClassUID    string
	InstanceNumber int
	ContentDate    string
	ContentTime    string

	EncodedAttributes []byte
}
