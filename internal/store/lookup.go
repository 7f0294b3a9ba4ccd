package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pacsforge/qido/internal/entity"
	"github.com/pacsforge/qido/internal/sqlutil"
)

// StudyByUID loads one study row.
func (s *Store) StudyByUID(studyInstanceUID string) (*entity.Study, error) {
	row := s.db.QueryRow(`
		SELECT pk, patient_fk, session_id, study_instance_uid, study_id,
			study_date, study_time, accession_number, study_description,
			number_of_study_related_instances, number_of_study_related_series,
			modalities_in_study, sop_classes_in_study, encoded_attributes
		FROM study WHERE study_instance_uid = ?`, studyInstanceUID)
	var st entity.Study
	err := row.Scan(&st.PK, &st.PatientPK, &st.SessionID, &st.StudyInstanceUID,
		&st.StudyID, &st.StudyDate, &st.StudyTime, &st.AccessionNumber,
		&st.StudyDescription, &st.NumberOfStudyRelatedInstances,
		&st.NumberOfStudyRelatedSeries, &st.ModalitiesInStudy,
		&st.SOPClassesInStudy, &st.EncodedAttributes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("study %s: %w", studyInstanceUID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load study: %w", err)
	}
	return &st, nil
}

// StudiesBySession lists the study rows of an archive session.
func (s *Store) StudiesBySession(sessionIDs []string) ([]entity.Study, error) {
	placeholders, args := sqlutil.InClauseArgs(sessionIDs)
	rows, err := s.db.Query(`
		SELECT pk, patient_fk, session_id, study_instance_uid, study_id,
			study_date, study_time, accession_number, study_description,
			number_of_study_related_instances, number_of_study_related_series,
			modalities_in_study, sop_classes_in_study, encoded_attributes
		FROM study WHERE session_id IN (`+placeholders+`)
		ORDER BY study_date, study_time`, args...)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (entity.Study, error) {
		var st entity.Study
		err := rows.Scan(&st.PK, &st.PatientPK, &st.SessionID, &st.StudyInstanceUID,
			&st.StudyID, &st.StudyDate, &st.StudyTime, &st.AccessionNumber,
			&st.StudyDescription, &st.NumberOfStudyRelatedInstances,
			&st.NumberOfStudyRelatedSeries, &st.ModalitiesInStudy,
			&st.SOPClassesInStudy, &st.EncodedAttributes)
		return st, err
	})
}
