package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pacsforge/qido/internal/entity"
)

// upsertPatient inserts or updates a patient row, keyed by the qualified
// patient ID. Returns the row's pk.
func upsertPatient(tx *sql.Tx, p *entity.Patient) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO patient (
			subject_id, patient_id, issuer_of_patient_id,
			patient_name, patient_birth_date, patient_sex,
			encoded_attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (patient_id, issuer_of_patient_id) DO UPDATE SET
			subject_id = excluded.subject_id,
			patient_name = excluded.patient_name,
			patient_birth_date = excluded.patient_birth_date,
			patient_sex = excluded.patient_sex,
			encoded_attributes = excluded.encoded_attributes`,
		p.SubjectID, p.PatientID, p.IssuerOfPatientID,
		p.PatientName, p.PatientBirthDate, p.PatientSex,
		p.EncodedAttributes)
	if err != nil {
		return 0, fmt.Errorf("upsert patient: %w", err)
	}
	var pk int64
	err = tx.QueryRow(`SELECT pk FROM patient WHERE patient_id = ? AND issuer_of_patient_id = ?`,
		p.PatientID, p.IssuerOfPatientID).Scan(&pk)
	if err != nil {
		return 0, fmt.Errorf("locate patient: %w", err)
	}
	return pk, nil
}

func upsertStudy(tx *sql.Tx, st *entity.Study) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO study (
			patient_fk, session_id, study_instance_uid, study_id,
			study_date, study_time, accession_number, study_description,
			encoded_attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (study_instance_uid) DO UPDATE SET
			patient_fk = excluded.patient_fk,
			session_id = excluded.session_id,
			study_id = excluded.study_id,
			study_date = excluded.study_date,
			study_time = excluded.study_time,
			accession_number = excluded.accession_number,
			study_description = excluded.study_description,
			encoded_attributes = excluded.encoded_attributes`,
		st.PatientPK, st.SessionID, st.StudyInstanceUID, st.StudyID,
		st.StudyDate, st.StudyTime, st.AccessionNumber, st.StudyDescription,
		st.EncodedAttributes)
	if err != nil {
		return 0, fmt.Errorf("upsert study: %w", err)
	}
	var pk int64
	err = tx.QueryRow(`SELECT pk FROM study WHERE study_instance_uid = ?`,
		st.StudyInstanceUID).Scan(&pk)
	if err != nil {
		return 0, fmt.Errorf("locate study: %w", err)
	}
	return pk, nil
}

func upsertSeries(tx *sql.Tx, se *entity.Series) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO series (
			study_fk, scan_id, series_instance_uid, series_number,
			modality, body_part_examined, laterality,
			series_description, station_name, institution_name,
			institutional_department_name,
			performed_procedure_step_start_date,
			performed_procedure_step_start_time,
			available_transfer_syntax_uid, sop_class_uid,
			encoded_attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (series_instance_uid) DO UPDATE SET
			study_fk = excluded.study_fk,
			scan_id = excluded.scan_id,
			series_number = excluded.series_number,
			modality = excluded.modality,
			body_part_examined = excluded.body_part_examined,
			laterality = excluded.laterality,
			series_description = excluded.series_description,
			station_name = excluded.station_name,
			institution_name = excluded.institution_name,
			institutional_department_name = excluded.institutional_department_name,
			performed_procedure_step_start_date = excluded.performed_procedure_step_start_date,
			performed_procedure_step_start_time = excluded.performed_procedure_step_start_time,
			available_transfer_syntax_uid = excluded.available_transfer_syntax_uid,
			sop_class_uid = excluded.sop_class_uid,
			encoded_attributes = excluded.encoded_attributes`,
		se.StudyPK, se.ScanID, se.SeriesInstanceUID, se.SeriesNumber,
		se.Modality, se.BodyPartExamined, se.Laterality,
		se.SeriesDescription, se.StationName, se.InstitutionName,
		se.InstitutionalDepartmentName,
		se.PerformedProcedureStepStartDate,
		se.PerformedProcedureStepStartTime,
		se.AvailableTransferSyntaxUID, se.SOPClassUID,
		se.EncodedAttributes)
	if err != nil {
		return 0, fmt.Errorf("upsert series: %w", err)
	}
	var pk int64
	err = tx.QueryRow(`SELECT pk FROM series WHERE series_instance_uid = ?`,
		se.SeriesInstanceUID).Scan(&pk)
	if err != nil {
		return 0, fmt.Errorf("locate series: %w", err)
	}
	return pk, nil
}

func upsertInstance(tx *sql.Tx, in *entity.Instance) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO instance (
			series_fk, sop_instance_uid, sop_class_uid,
			instance_number, content_date, content_time,
			encoded_attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (sop_instance_uid) DO UPDATE SET
			series_fk = excluded.series_fk,
			sop_class_uid = excluded.sop_class_uid,
			instance_number = excluded.instance_number,
			content_date = excluded.content_date,
			content_time = excluded.content_time,
			encoded_attributes = excluded.encoded_attributes`,
		in.SeriesPK, in.SOPInstanceUID, in.SOPClassUID,
		in.InstanceNumber, in.ContentDate, in.ContentTime,
		in.EncodedAttributes)
	if err != nil {
		return 0, fmt.Errorf("upsert instance: %w", err)
	}
	var pk int64
	err = tx.QueryRow(`SELECT pk FROM instance WHERE sop_instance_uid = ?`,
		in.SOPInstanceUID).Scan(&pk)
	if err != nil {
		return 0, fmt.Errorf("locate instance: %w", err)
	}
	return pk, nil
}

// StoreInstance writes one object and its ancestor rows, then refreshes
// the denormalized counts and rollup columns on the path up. The whole
// write is one transaction.
func (s *Store) StoreInstance(p *entity.Patient, st *entity.Study, se *entity.Series, in *entity.Instance) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin store: %w", err)
	}
	defer tx.Rollback()

	patientPK, err := upsertPatient(tx, p)
	if err != nil {
		return err
	}
	st.PatientPK = patientPK
	studyPK, err := upsertStudy(tx, st)
	if err != nil {
		return err
	}
	se.StudyPK = studyPK
	seriesPK, err := upsertSeries(tx, se)
	if err != nil {
		return err
	}
	in.SeriesPK = seriesPK
	if _, err := upsertInstance(tx, in); err != nil {
		return err
	}

	if err := refreshSeriesRollups(tx, seriesPK); err != nil {
		return err
	}
	if err := refreshStudyRollups(tx, studyPK); err != nil {
		return err
	}
	if err := refreshPatientRollups(tx, patientPK); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit store: %w", err)
	}
	s.log.Debug().
		Str("sop_instance_uid", in.SOPInstanceUID).
		Str("series_instance_uid", se.SeriesInstanceUID).
		Msg("instance stored")
	return nil
}

// refreshSeriesRollups recomputes the instance count and the SOP class
// rollup of a series from its instances.
func refreshSeriesRollups(tx *sql.Tx, seriesPK int64) error {
	_, err := tx.Exec(`
		UPDATE series SET
			number_of_series_related_instances = (
				SELECT COUNT(*) FROM instance WHERE series_fk = series.pk
			),
			sop_classes_in_series = (
				SELECT COALESCE(GROUP_CONCAT(DISTINCT sop_class_uid), '')
				FROM instance WHERE series_fk = series.pk AND sop_class_uid <> ''
			)
		WHERE pk = ?`, seriesPK)
	if err != nil {
		return fmt.Errorf("refresh series rollups: %w", err)
	}
	_, err = tx.Exec(`
		UPDATE series SET
			sop_classes_in_series = REPLACE(sop_classes_in_series, ',', '\')
		WHERE pk = ?`, seriesPK)
	if err != nil {
		return fmt.Errorf("refresh series rollups: %w", err)
	}
	return nil
}

// refreshStudyRollups recomputes the counts and the modality rollup of a
// study from its series, and the SOP class rollup from every instance
// under it.
func refreshStudyRollups(tx *sql.Tx, studyPK int64) error {
	_, err := tx.Exec(`
		UPDATE study SET
			number_of_study_related_series = (
				SELECT COUNT(*) FROM series WHERE study_fk = study.pk
			),
			number_of_study_related_instances = (
				SELECT COALESCE(SUM(number_of_series_related_instances), 0)
				FROM series WHERE study_fk = study.pk
			),
			modalities_in_study = (
				SELECT COALESCE(GROUP_CONCAT(DISTINCT modality), '')
				FROM series WHERE study_fk = study.pk AND modality <> ''
			),
			sop_classes_in_study = (
				SELECT COALESCE(GROUP_CONCAT(DISTINCT i.sop_class_uid), '')
				FROM instance i JOIN series s ON s.pk = i.series_fk
				WHERE s.study_fk = study.pk AND i.sop_class_uid <> ''
			)
		WHERE pk = ?`, studyPK)
	if err != nil {
		return fmt.Errorf("refresh study rollups: %w", err)
	}
	// GROUP_CONCAT joins with commas; stored multi-valued columns use the
	// DICOM value separator.
	_, err = tx.Exec(`
		UPDATE study SET
			modalities_in_study = REPLACE(modalities_in_study, ',', '\'),
			sop_classes_in_study = REPLACE(sop_classes_in_study, ',', '\')
		WHERE pk = ?`, studyPK)
	if err != nil {
		return fmt.Errorf("refresh study rollups: %w", err)
	}
	return nil
}

func refreshPatientRollups(tx *sql.Tx, patientPK int64) error {
	_, err := tx.Exec(`
		UPDATE patient SET number_of_studies = (
			SELECT COUNT(*) FROM study WHERE patient_fk = patient.pk
		) WHERE pk = ?`, patientPK)
	if err != nil {
		return fmt.Errorf("refresh patient rollups: %w", err)
	}
	return nil
}

// DeleteStudy removes a study and everything under it, then refreshes the
// patient's study count.
func (s *Store) DeleteStudy(studyInstanceUID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var pk, patientPK int64
	err = tx.QueryRow(`SELECT pk, patient_fk FROM study WHERE study_instance_uid = ?`,
		studyInstanceUID).Scan(&pk, &patientPK)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("study %s: %w", studyInstanceUID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("locate study: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM study WHERE pk = ?`, pk); err != nil {
		return fmt.Errorf("delete study: %w", err)
	}
	if err := refreshPatientRollups(tx, patientPK); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	s.log.Info().Str("study_instance_uid", studyInstanceUID).Msg("study deleted")
	return nil
}

// DeleteSeries removes a series and its instances, then refreshes the
// study's rollups.
func (s *Store) DeleteSeries(seriesInstanceUID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var pk, studyPK int64
	err = tx.QueryRow(`SELECT pk, study_fk FROM series WHERE series_instance_uid = ?`,
		seriesInstanceUID).Scan(&pk, &studyPK)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("series %s: %w", seriesInstanceUID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("locate series: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM series WHERE pk = ?`, pk); err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	if err := refreshStudyRollups(tx, studyPK); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	s.log.Info().Str("series_instance_uid", seriesInstanceUID).Msg("series deleted")
	return nil
}
