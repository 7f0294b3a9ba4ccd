package dcm

import (
	"testing"
)

func TestAddAllOverwrite(t *testing.T) {
	base := New()
	base.SetString(PatientName, VRPN, "DOE^JOHN")
	base.SetString(PatientSex, VRCS, "M")

	src := New()
	src.SetString(PatientName, VRPN, "ROE^JANE")

	merged := New()
	merged.AddAll(base, true)
	merged.AddAll(src, true)
	if got := merged.GetString(PatientName); got != "ROE^JANE" {
		t.Errorf("PatientName = %q, want overwrite", got)
	}
	if got := merged.GetString(PatientSex); got != "M" {
		t.Errorf("PatientSex = %q", got)
	}

	kept := New()
	kept.AddAll(base, true)
	kept.AddAll(src, false)
	if got := kept.GetString(PatientName); got != "DOE^JOHN" {
		t.Errorf("PatientName = %q, want original kept", got)
	}
}

func TestSupplementEmpty(t *testing.T) {
	attrs := New()
	attrs.SetString(PatientName, VRPN, "DOE^JOHN")

	keys := New()
	keys.SetEmpty(PatientName, VRPN)
	keys.SetEmpty(StudyDescription, VRLO)

	attrs.SupplementEmpty(keys)
	if got := attrs.GetString(PatientName); got != "DOE^JOHN" {
		t.Errorf("existing value replaced: %q", got)
	}
	if !attrs.Contains(StudyDescription) {
		t.Error("missing key not supplemented")
	}
	if el, _ := attrs.Get(StudyDescription); len(el.Values) != 0 {
		t.Errorf("supplemented key has values: %v", el.Values)
	}
}

func TestAddSelected(t *testing.T) {
	src := New()
	src.SetString(PatientName, VRPN, "DOE^JOHN")
	src.SetString(StudyInstanceUID, VRUI, "1.2.3")
	src.SetString(StudyDescription, VRLO, "CHEST CT")

	selection := New()
	selection.SetEmpty(StudyInstanceUID, VRUI)

	out := New()
	out.AddSelected(src, selection)
	if out.Len() != 1 {
		t.Fatalf("Len = %d, want 1", out.Len())
	}
	if got := out.GetString(StudyInstanceUID); got != "1.2.3" {
		t.Errorf("StudyInstanceUID = %q", got)
	}
}

func TestUnifyCharacterSetsAgreeing(t *testing.T) {
	a := New()
	a.SetString(SpecificCharacterSet, VRCS, "ISO_IR 100")
	b := New()
	b.SetString(SpecificCharacterSet, VRCS, "ISO_IR 100")

	UnifyCharacterSets(a, b)
	if got := a.GetString(SpecificCharacterSet); got != "ISO_IR 100" {
		t.Errorf("agreeing sets rewritten: %q", got)
	}
}

func TestUnifyCharacterSetsDisagreeing(t *testing.T) {
	a := New()
	a.SetString(SpecificCharacterSet, VRCS, "ISO_IR 100")
	b := New()
	b.SetString(SpecificCharacterSet, VRCS, "ISO_IR 144")
	c := New() // no declaration

	UnifyCharacterSets(a, b, c)
	if got := a.GetString(SpecificCharacterSet); got != "ISO_IR 192" {
		t.Errorf("a = %q, want ISO_IR 192", got)
	}
	if got := b.GetString(SpecificCharacterSet); got != "ISO_IR 192" {
		t.Errorf("b = %q, want ISO_IR 192", got)
	}
	if c.Contains(SpecificCharacterSet) {
		t.Error("undeclared set gained a declaration")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	attrs := New()
	attrs.SetString(PatientName, VRPN, "DOE^JOHN")
	attrs.SetString(ModalitiesInStudy, VRCS, "CT", "MR")
	attrs.SetEmpty(StudyDescription, VRLO)

	blob, err := attrs.EncodeBlob()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBlob(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if name := got.GetString(PatientName); name != "DOE^JOHN" {
		t.Errorf("PatientName = %q", name)
	}
	if mods := got.Strings(ModalitiesInStudy); len(mods) != 2 || mods[1] != "MR" {
		t.Errorf("ModalitiesInStudy = %v", mods)
	}
	if el, ok := got.Get(StudyDescription); !ok || el.VR != VRLO {
		t.Errorf("StudyDescription = %+v, %v", el, ok)
	}
}

func TestDecodeBlobEmpty(t *testing.T) {
	for _, blob := range [][]byte{nil, {}} {
		got, err := DecodeBlob(blob)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.IsEmpty() {
			t.Errorf("decoded %d attributes from empty blob", got.Len())
		}
	}
}

func TestSplitJoinValues(t *testing.T) {
	if got := SplitValues(""); got != nil {
		t.Errorf("SplitValues(\"\") = %v", got)
	}
	if got := SplitValues(`CT\MR`); len(got) != 2 || got[0] != "CT" {
		t.Errorf("SplitValues = %v", got)
	}
	if got := JoinValues([]string{"CT", "MR"}); got != `CT\MR` {
		t.Errorf("JoinValues = %q", got)
	}
}

func TestGetInt(t *testing.T) {
	attrs := New()
	attrs.SetString(SeriesNumber, VRIS, " 7 ")
	attrs.SetString(InstanceNumber, VRIS, "abc")
	if got := attrs.GetInt(SeriesNumber, 0); got != 7 {
		t.Errorf("SeriesNumber = %d", got)
	}
	if got := attrs.GetInt(InstanceNumber, -1); got != -1 {
		t.Errorf("unparsable value = %d, want default", got)
	}
	if got := attrs.GetInt(NumberOfStudyRelatedSeries, 3); got != 3 {
		t.Errorf("absent value = %d, want default", got)
	}
}
