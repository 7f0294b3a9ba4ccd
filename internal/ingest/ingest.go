// Package ingest parses DICOM part-10 files and writes them into the
// archive as Patient -> Study -> Series -> Instance rows, splitting each
// dataset's attributes across the level blobs.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	godicom "github.com/gradienthealth/dicom"
	"github.com/rs/zerolog"

	"github.com/pacsforge/qido/internal/dcm"
	"github.com/pacsforge/qido/internal/entity"
	"github.com/pacsforge/qido/internal/store"
)

// transferSyntaxUID is the file meta tag recorded as the available
// transfer syntax of the stored object.
const transferSyntaxUID dcm.Tag = 0x00020010

// Importer writes parsed DICOM files into an archive.
type Importer struct {
	store    *store.Store
	manifest *Manifest
	log      zerolog.Logger
}

// NewImporter returns an importer bound to the store. manifest may be nil;
// identifiers then fall back to the dataset's own values.
func NewImporter(s *store.Store, manifest *Manifest, logger zerolog.Logger) *Importer {
	return &Importer{store: s, manifest: manifest, log: logger}
}

// ImportDir walks dir and imports every .dcm file. Files that fail to
// parse are logged and skipped; the walk continues. Returns the number of
// instances stored.
func (im *Importer) ImportDir(dir string) (int, error) {
	return im.ImportDirFunc(dir, nil)
}

// ImportDirFunc is ImportDir with a callback invoked after each stored
// instance, used for progress reporting.
func (im *Importer) ImportDirFunc(dir string, onStored func()) (int, error) {
	var stored int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".dcm") {
			return nil
		}
		if err := im.ImportFile(path); err != nil {
			im.log.Warn().Err(err).Str("path", path).Msg("skipping file")
			return nil
		}
		stored++
		if onStored != nil {
			onStored()
		}
		return nil
	})
	if err != nil {
		return stored, fmt.Errorf("walk %s: %w", dir, err)
	}
	im.log.Info().Int("stored", stored).Str("dir", dir).Msg("import finished")
	return stored, nil
}

// ImportFile parses one DICOM file and stores it.
func (im *Importer) ImportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	parser, err := godicom.NewParser(f, fi.Size(), nil)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	ds, err := parser.Parse(godicom.ParseOptions{DropPixelData: true})
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	attrs := datasetToAttributes(ds)
	return im.Store(attrs)
}

// Store writes one dataset's attributes into the archive.
func (im *Importer) Store(attrs *dcm.Attributes) error {
	sopUID := attrs.GetString(dcm.SOPInstanceUID)
	if sopUID == "" {
		return fmt.Errorf("dataset has no SOPInstanceUID")
	}
	if attrs.GetString(dcm.StudyInstanceUID) == "" ||
		attrs.GetString(dcm.SeriesInstanceUID) == "" {
		return fmt.Errorf("instance %s has no study/series UID", sopUID)
	}

	p, err := im.patientRow(attrs)
	if err != nil {
		return err
	}
	st, err := im.studyRow(attrs)
	if err != nil {
		return err
	}
	se, err := im.seriesRow(attrs)
	if err != nil {
		return err
	}
	in, err := instanceRow(attrs)
	if err != nil {
		return err
	}
	return im.store.StoreInstance(p, st, se, in)
}

func (im *Importer) patientRow(attrs *dcm.Attributes) (*entity.Patient, error) {
	blob, err := encodeLevel(attrs, patientFilter)
	if err != nil {
		return nil, err
	}
	subject := attrs.GetString(dcm.PatientID)
	if im.manifest != nil && im.manifest.Subject != "" {
		subject = im.manifest.Subject
	}
	return &entity.Patient{
		SubjectID:         subject,
		PatientID:         attrs.GetString(dcm.PatientID),
		IssuerOfPatientID: attrs.GetString(dcm.IssuerOfPatientID),
		PatientName:       attrs.GetString(dcm.PatientName),
		PatientBirthDate:  attrs.GetString(dcm.PatientBirthDate),
		PatientSex:        strings.ToUpper(attrs.GetString(dcm.PatientSex)),
		EncodedAttributes: blob,
	}, nil
}

func (im *Importer) studyRow(attrs *dcm.Attributes) (*entity.Study, error) {
	blob, err := encodeLevel(attrs, studyFilter)
	if err != nil {
		return nil, err
	}
	session := attrs.GetString(dcm.StudyID)
	if im.manifest != nil && im.manifest.Session != "" {
		session = im.manifest.Session
	}
	return &entity.Study{
		SessionID:         session,
		StudyInstanceUID:  attrs.GetString(dcm.StudyInstanceUID),
		StudyID:           attrs.GetString(dcm.StudyID),
		StudyDate:         attrs.GetString(dcm.StudyDate),
		StudyTime:         attrs.GetString(dcm.StudyTime),
		AccessionNumber:   attrs.GetString(dcm.AccessionNumber),
		StudyDescription:  attrs.GetString(dcm.StudyDescription),
		EncodedAttributes: blob,
	}, nil
}

func (im *Importer) seriesRow(attrs *dcm.Attributes) (*entity.Series, error) {
	blob, err := encodeLevel(attrs, seriesFilter)
	if err != nil {
		return nil, err
	}
	seriesUID := attrs.GetString(dcm.SeriesInstanceUID)
	scanID := im.manifest.ScanID(seriesUID, attrs.GetString(dcm.SeriesNumber))
	return &entity.Series{
		ScanID:                          scanID,
		SeriesInstanceUID:               seriesUID,
		SeriesNumber:                    attrs.GetInt(dcm.SeriesNumber, 0),
		Modality:                        strings.ToUpper(attrs.GetString(dcm.Modality)),
		BodyPartExamined:                strings.ToUpper(attrs.GetString(dcm.BodyPartExamined)),
		Laterality:                      strings.ToUpper(attrs.GetString(dcm.Laterality)),
		SeriesDescription:               attrs.GetString(dcm.SeriesDescription),
		StationName:                     attrs.GetString(dcm.StationName),
		InstitutionName:                 attrs.GetString(dcm.InstitutionName),
		InstitutionalDepartmentName:     attrs.GetString(dcm.InstitutionalDepartmentName),
		PerformedProcedureStepStartDate: attrs.GetString(dcm.PerformedProcedureStepStartDate),
		PerformedProcedureStepStartTime: attrs.GetString(dcm.PerformedProcedureStepStartTime),
		AvailableTransferSyntaxUID:      attrs.GetString(transferSyntaxUID),
		SOPClassUID:                     attrs.GetString(dcm.SOPClassUID),
		EncodedAttributes:               blob,
	}, nil
}

func instanceRow(attrs *dcm.Attributes) (*entity.Instance, error) {
	blob, err := encodeInstance(attrs)
	if err != nil {
		return nil, err
	}
	return &entity.Instance{
		SOPInstanceUID:    attrs.GetString(dcm.SOPInstanceUID),
		SOPClassUID:       attrs.GetString(dcm.SOPClassUID),
		InstanceNumber:    attrs.GetInt(dcm.InstanceNumber, 0),
		ContentDate:       attrs.GetString(dcm.ContentDate),
		ContentTime:       attrs.GetString(dcm.ContentTime),
		EncodedAttributes: blob,
	}, nil
}

// Level filters: which tags belong to which blob. The character set
// declaration travels with every blob so each decodes standalone.

var patientFilter = map[dcm.Tag]bool{
	dcm.SpecificCharacterSet: true,
	dcm.PatientName:          true,
	dcm.PatientID:            true,
	dcm.IssuerOfPatientID:    true,
	dcm.PatientBirthDate:     true,
	dcm.PatientSex:           true,
}

var studyFilter = map[dcm.Tag]bool{
	dcm.SpecificCharacterSet:   true,
	dcm.StudyInstanceUID:       true,
	dcm.StudyID:                true,
	dcm.StudyDate:              true,
	dcm.StudyTime:              true,
	dcm.AccessionNumber:        true,
	dcm.StudyDescription:       true,
	dcm.ReferringPhysicianName: true,
}

var seriesFilter = map[dcm.Tag]bool{
	dcm.SpecificCharacterSet:            true,
	dcm.SeriesInstanceUID:               true,
	dcm.SeriesNumber:                    true,
	dcm.Modality:                        true,
	dcm.BodyPartExamined:                true,
	dcm.Laterality:                      true,
	dcm.SeriesDescription:               true,
	dcm.StationName:                     true,
	dcm.InstitutionName:                 true,
	dcm.InstitutionalDepartmentName:     true,
	dcm.PerformedProcedureStepStartDate: true,
	dcm.PerformedProcedureStepStartTime: true,
}

func encodeLevel(attrs *dcm.Attributes, filter map[dcm.Tag]bool) ([]byte, error) {
	out := dcm.New()
	for tag := range filter {
		if el, ok := attrs.Get(tag); ok {
			out.SetString(tag, el.VR, el.Values...)
		}
	}
	return out.EncodeBlob()
}

// encodeInstance keeps everything the ancestor blobs do not claim, except
// the file meta group.
func encodeInstance(attrs *dcm.Attributes) ([]byte, error) {
	out := dcm.New()
	for _, tag := range attrs.Tags() {
		if tag.Group() == 0x0002 {
			continue
		}
		if tag != dcm.SpecificCharacterSet &&
			(patientFilter[tag] || studyFilter[tag] || seriesFilter[tag]) {
			continue
		}
		el, _ := attrs.Get(tag)
		out.SetString(tag, el.VR, el.Values...)
	}
	return out.EncodeBlob()
}

// datasetToAttributes flattens a parsed dataset into the engine's
// attribute model. Sequences and bulk data are dropped; scalar values are
// kept in their DICOM string form.
func datasetToAttributes(ds *godicom.DataSet) *dcm.Attributes {
	attrs := dcm.New()
	for _, e := range ds.Elements {
		if e.VR == "SQ" || e.VR == "OB" || e.VR == "OW" || e.VR == "UN" {
			continue
		}
		tag := dcm.Tag(uint32(e.Tag.Group)<<16 | uint32(e.Tag.Element))
		values := make([]string, 0, len(e.Value))
		for _, v := range e.Value {
			values = append(values, valueString(v))
		}
		attrs.SetString(tag, dcm.VR(e.VR), values...)
	}
	return attrs
}

func valueString(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimRight(v, " \x00")
	case []byte:
		return string(v)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
