package dcm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueSeparator joins the components of a multi-valued attribute when it is
// stored in a single column.
const ValueSeparator = "\\"

// Element is a single attribute: a value representation and zero or more
// string values. Values are kept in their DICOM string form; numeric VRs
// are parsed on access.
type Element struct {
	VR     VR       `json:"vr"`
	Values []string `json:"Value,omitempty"`
}

// Attributes is a DICOM attribute set keyed by tag. The zero value is not
// usable; call New. Iteration order is tag order, matching how attributes
// appear in an encoded dataset.
type Attributes struct {
	elems map[Tag]Element
}

// New returns an empty attribute set.
func New() *Attributes {
	return &Attributes{elems: make(map[Tag]Element)}
}

// Len returns the number of attributes in the set.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elems)
}

// IsEmpty reports whether the set is nil or has no attributes.
func (a *Attributes) IsEmpty() bool { return a.Len() == 0 }

// Contains reports whether the tag is present, even with an empty value.
func (a *Attributes) Contains(tag Tag) bool {
	if a == nil {
		return false
	}
	_, ok := a.elems[tag]
	return ok
}

// Get returns the element for the tag.
func (a *Attributes) Get(tag Tag) (Element, bool) {
	if a == nil {
		return Element{}, false
	}
	el, ok := a.elems[tag]
	return el, ok
}

// Tags returns all tags in ascending order.
func (a *Attributes) Tags() []Tag {
	if a == nil {
		return nil
	}
	tags := make([]Tag, 0, len(a.elems))
	for t := range a.elems {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// SetString sets the tag to the given values, replacing any existing element.
func (a *Attributes) SetString(tag Tag, vr VR, values ...string) {
	a.elems[tag] = Element{VR: vr, Values: values}
}

// SetInt sets the tag to a single numeric value in its string form.
func (a *Attributes) SetInt(tag Tag, vr VR, v int) {
	a.SetString(tag, vr, strconv.Itoa(v))
}

// SetEmpty sets the tag with no value (zero-length attribute).
func (a *Attributes) SetEmpty(tag Tag, vr VR) {
	a.elems[tag] = Element{VR: vr}
}

// GetString returns the first value of the tag, or "" if absent or empty.
func (a *Attributes) GetString(tag Tag) string {
	el, ok := a.Get(tag)
	if !ok || len(el.Values) == 0 {
		return ""
	}
	return el.Values[0]
}

// GetStringDefault returns the first value of the tag, or def if absent
// or empty.
func (a *Attributes) GetStringDefault(tag Tag, def string) string {
	if s := a.GetString(tag); s != "" {
		return s
	}
	return def
}

// Strings returns all values of the tag, or nil if the tag is absent.
func (a *Attributes) Strings(tag Tag) []string {
	el, ok := a.Get(tag)
	if !ok {
		return nil
	}
	return el.Values
}

// GetInt returns the first value parsed as an integer, or def when the tag
// is absent or not numeric.
func (a *Attributes) GetInt(tag Tag, def int) int {
	s := strings.TrimSpace(a.GetString(tag))
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// DateRange parses the tag's value as a DICOM range per the given VR.
// Absent, empty and malformed values all yield the universal range, never
// an error.
func (a *Attributes) DateRange(tag Tag, vr VR) DateRange {
	return ParseDateRange(a.GetString(tag), vr)
}

// DateTimeRange combines the date tag's range and the time tag's range into
// a single datetime range, used for combined date-time matching.
func (a *Attributes) DateTimeRange(dateTag, timeTag Tag) DateRange {
	return CombineDateTime(a.GetString(dateTag), a.GetString(timeTag))
}

// AddAll copies every element of src into a. With overwrite set, src wins
// on tag collision; otherwise existing elements are kept.
func (a *Attributes) AddAll(src *Attributes, overwrite bool) {
	if src == nil {
		return
	}
	for tag, el := range src.elems {
		if !overwrite {
			if _, ok := a.elems[tag]; ok {
				continue
			}
		}
		a.elems[tag] = el
	}
}

// AddSelected copies from src only the tags present in selection.
func (a *Attributes) AddSelected(src, selection *Attributes) {
	if src == nil || selection == nil {
		return
	}
	for tag := range selection.elems {
		if el, ok := src.elems[tag]; ok {
			a.elems[tag] = el
		}
	}
}

// SupplementEmpty adds a zero-length element for every tag of keys that is
// not already present in a.
func (a *Attributes) SupplementEmpty(keys *Attributes) {
	if keys == nil {
		return
	}
	for tag, el := range keys.elems {
		if _, ok := a.elems[tag]; !ok {
			a.elems[tag] = Element{VR: el.VR}
		}
	}
}

// utf8CharacterSet is the declaration forced onto merged sets whose
// members disagree. Decoded values are Go strings, so re-declaring the
// merged set as UTF-8 is lossless.
const utf8CharacterSet = "ISO_IR 192"

// UnifyCharacterSets aligns the SpecificCharacterSet declaration of the
// given sets before they are merged. Sets that already agree are left
// alone; on disagreement every set that declares a character set is
// re-declared as UTF-8.
func UnifyCharacterSets(sets ...*Attributes) {
	var first string
	var seen, differ bool
	for _, s := range sets {
		if s == nil || !s.Contains(SpecificCharacterSet) {
			continue
		}
		cs := s.GetString(SpecificCharacterSet)
		if !seen {
			first, seen = cs, true
		} else if cs != first {
			differ = true
		}
	}
	if !differ {
		return
	}
	for _, s := range sets {
		if s != nil && s.Contains(SpecificCharacterSet) {
			s.SetString(SpecificCharacterSet, VRCS, utf8CharacterSet)
		}
	}
}

// MarshalJSON encodes the set in the PS3.18 JSON shape: hex tag keys
// mapping to {"vr", "Value"} objects.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	m := make(map[string]Element, len(a.elems))
	for tag, el := range a.elems {
		m[fmt.Sprintf("%08X", uint32(tag))] = el
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the PS3.18 JSON shape produced by MarshalJSON.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var m map[string]Element
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	a.elems = make(map[Tag]Element, len(m))
	for key, el := range m {
		v, err := strconv.ParseUint(key, 16, 32)
		if err != nil {
			return fmt.Errorf("invalid tag key %q: %w", key, err)
		}
		a.elems[Tag(v)] = el
	}
	return nil
}

// EncodeBlob serializes the set for storage in an entity row.
func (a *Attributes) EncodeBlob() ([]byte, error) {
	if a == nil {
		return New().MarshalJSON()
	}
	return a.MarshalJSON()
}

// DecodeBlob deserializes a stored attribute blob. A nil or empty blob
// decodes to an empty set.
func DecodeBlob(blob []byte) (*Attributes, error) {
	a := New()
	if len(blob) == 0 {
		return a, nil
	}
	if err := a.UnmarshalJSON(blob); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return a, nil
}

// SplitValues splits a stored multi-valued column into its components.
// Empty input yields nil.
func SplitValues(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ValueSeparator)
}

// JoinValues joins attribute values for storage in a single column.
func JoinValues(values []string) string {
	return strings.Join(values, ValueSeparator)
}
