package store

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pacsforge/qido/internal/entity"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func storeObject(t *testing.T, s *Store, modality, sopClass, studyUID, seriesUID, sopUID string) {
	t.Helper()
	err := s.StoreInstance(
		&entity.Patient{SubjectID: "SUBJ1", PatientID: "P001", PatientName: "DOE^JOHN"},
		&entity.Study{SessionID: "SESS1", StudyInstanceUID: studyUID, StudyDate: "20240215"},
		&entity.Series{SeriesInstanceUID: seriesUID, Modality: modality, SOPClassUID: sopClass},
		&entity.Instance{SOPInstanceUID: sopUID, SOPClassUID: sopClass},
	)
	if err != nil {
		t.Fatalf("store %s: %v", sopUID, err)
	}
}

func queryInt(t *testing.T, s *Store, stmt string, args ...any) int64 {
	t.Helper()
	var v int64
	if err := s.DB().QueryRow(stmt, args...).Scan(&v); err != nil {
		t.Fatalf("query %q: %v", stmt, err)
	}
	return v
}

func queryString(t *testing.T, s *Store, stmt string, args ...any) string {
	t.Helper()
	var v string
	if err := s.DB().QueryRow(stmt, args...).Scan(&v); err != nil {
		t.Fatalf("query %q: %v", stmt, err)
	}
	return v
}

const (
	ctImageStorage          = "1.2.840.10008.5.1.4.1.1.2"
	mrImageStorage          = "1.2.840.10008.5.1.4.1.1.4"
	secondaryCaptureStorage = "1.2.840.10008.5.1.4.1.1.7"
)

func TestStoreInstanceRollups(t *testing.T) {
	s := setupTestDB(t)
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.2")
	storeObject(t, s, "MR", mrImageStorage, "1.2.3.1", "1.2.3.1.2", "1.2.3.1.2.1")

	st, err := s.StudyByUID("1.2.3.1")
	if err != nil {
		t.Fatalf("StudyByUID: %v", err)
	}
	if st.NumberOfStudyRelatedSeries != 2 {
		t.Errorf("series count = %d", st.NumberOfStudyRelatedSeries)
	}
	if st.NumberOfStudyRelatedInstances != 3 {
		t.Errorf("instance count = %d", st.NumberOfStudyRelatedInstances)
	}
	// Rollup lists use the DICOM value separator, not GROUP_CONCAT's comma.
	if st.ModalitiesInStudy != `CT\MR` {
		t.Errorf("ModalitiesInStudy = %q", st.ModalitiesInStudy)
	}
	if st.SOPClassesInStudy != ctImageStorage+`\`+mrImageStorage {
		t.Errorf("SOPClassesInStudy = %q", st.SOPClassesInStudy)
	}

	if got := queryInt(t, s, `SELECT number_of_series_related_instances FROM series WHERE series_instance_uid = ?`, "1.2.3.1.1"); got != 2 {
		t.Errorf("series instance count = %d", got)
	}
	if got := queryInt(t, s, `SELECT number_of_studies FROM patient WHERE patient_id = ?`, "P001"); got != 1 {
		t.Errorf("patient study count = %d", got)
	}
}

func TestSeriesSOPClassRollup(t *testing.T) {
	s := setupTestDB(t)
	// One series holding instances of two different SOP classes.
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")
	storeObject(t, s, "CT", secondaryCaptureStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.2")

	got := queryString(t, s, `SELECT sop_classes_in_series FROM series WHERE series_instance_uid = ?`, "1.2.3.1.1")
	classes := strings.Split(got, `\`)
	sort.Strings(classes)
	want := []string{ctImageStorage, secondaryCaptureStorage}
	sort.Strings(want)
	if len(classes) != 2 || classes[0] != want[0] || classes[1] != want[1] {
		t.Errorf("sop_classes_in_series = %q", got)
	}

	st, err := s.StudyByUID("1.2.3.1")
	if err != nil {
		t.Fatalf("StudyByUID: %v", err)
	}
	classes = strings.Split(st.SOPClassesInStudy, `\`)
	sort.Strings(classes)
	if len(classes) != 2 || classes[0] != want[0] || classes[1] != want[1] {
		t.Errorf("SOPClassesInStudy = %q", st.SOPClassesInStudy)
	}
}

func TestStoreInstanceIdempotent(t *testing.T) {
	s := setupTestDB(t)
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{Patients: 1, Studies: 1, Series: 1, Instances: 1}
	if stats != want {
		t.Errorf("Stats = %+v, want %+v", stats, want)
	}
}

func TestStoreInstanceUpdatesRow(t *testing.T) {
	s := setupTestDB(t)
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")

	err := s.StoreInstance(
		&entity.Patient{SubjectID: "SUBJ1", PatientID: "P001", PatientName: "DOE^JOHN^A"},
		&entity.Study{SessionID: "SESS1", StudyInstanceUID: "1.2.3.1", StudyDescription: "CHEST CT"},
		&entity.Series{SeriesInstanceUID: "1.2.3.1.1", Modality: "CT"},
		&entity.Instance{SOPInstanceUID: "1.2.3.1.1.1", InstanceNumber: 7},
	)
	if err != nil {
		t.Fatalf("re-store: %v", err)
	}
	if got := queryString(t, s, `SELECT patient_name FROM patient WHERE patient_id = ?`, "P001"); got != "DOE^JOHN^A" {
		t.Errorf("patient_name = %q", got)
	}
	if got := queryString(t, s, `SELECT study_description FROM study WHERE study_instance_uid = ?`, "1.2.3.1"); got != "CHEST CT" {
		t.Errorf("study_description = %q", got)
	}
	if got := queryInt(t, s, `SELECT instance_number FROM instance WHERE sop_instance_uid = ?`, "1.2.3.1.1.1"); got != 7 {
		t.Errorf("instance_number = %d", got)
	}
}

func TestDeleteSeries(t *testing.T) {
	s := setupTestDB(t)
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")
	storeObject(t, s, "MR", mrImageStorage, "1.2.3.1", "1.2.3.1.2", "1.2.3.1.2.1")

	if err := s.DeleteSeries("1.2.3.1.2"); err != nil {
		t.Fatalf("DeleteSeries: %v", err)
	}
	// Instances cascade and the study rollups shrink.
	if got := queryInt(t, s, `SELECT COUNT(*) FROM instance`); got != 1 {
		t.Errorf("%d instances remain", got)
	}
	st, err := s.StudyByUID("1.2.3.1")
	if err != nil {
		t.Fatalf("StudyByUID: %v", err)
	}
	if st.NumberOfStudyRelatedSeries != 1 || st.NumberOfStudyRelatedInstances != 1 {
		t.Errorf("counts = %d/%d", st.NumberOfStudyRelatedSeries, st.NumberOfStudyRelatedInstances)
	}
	if st.ModalitiesInStudy != "CT" {
		t.Errorf("ModalitiesInStudy = %q", st.ModalitiesInStudy)
	}

	if err := s.DeleteSeries("1.2.3.1.2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestDeleteStudy(t *testing.T) {
	s := setupTestDB(t)
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")
	storeObject(t, s, "MR", mrImageStorage, "1.2.3.2", "1.2.3.2.1", "1.2.3.2.1.1")

	if err := s.DeleteStudy("1.2.3.1"); err != nil {
		t.Fatalf("DeleteStudy: %v", err)
	}
	if _, err := s.StudyByUID("1.2.3.1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted study still loads: %v", err)
	}
	if got := queryInt(t, s, `SELECT COUNT(*) FROM series`); got != 1 {
		t.Errorf("%d series remain", got)
	}
	if got := queryInt(t, s, `SELECT number_of_studies FROM patient WHERE patient_id = ?`, "P001"); got != 1 {
		t.Errorf("patient study count = %d", got)
	}

	if err := s.DeleteStudy("1.2.3.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown study: %v", err)
	}
}

func TestStudiesBySession(t *testing.T) {
	s := setupTestDB(t)
	storeObject(t, s, "CT", ctImageStorage, "1.2.3.1", "1.2.3.1.1", "1.2.3.1.1.1")

	studies, err := s.StudiesBySession([]string{"SESS1", "SESS9"})
	if err != nil {
		t.Fatalf("StudiesBySession: %v", err)
	}
	if len(studies) != 1 || studies[0].StudyInstanceUID != "1.2.3.1" {
		t.Errorf("studies = %+v", studies)
	}

	studies, err = s.StudiesBySession(nil)
	if err != nil {
		t.Fatalf("empty session list: %v", err)
	}
	if len(studies) != 0 {
		t.Errorf("empty session list returned %d studies", len(studies))
	}
}

func TestStatsEmpty(t *testing.T) {
	s := setupTestDB(t)
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if (stats != Stats{}) {
		t.Errorf("Stats = %+v", stats)
	}
}
