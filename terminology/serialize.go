package terminology

import (
	"fmt"
	"strings"
)

// Delimiters of the serialized entry format.
//
//	context~scheme^value^meaning~type~modifier~anatomicContext~region~regionModifier
const (
	groupSeparator = "~"
	codeSeparator  = "^"
	escapeChar     = '%'

	entryGroups    = 7
	requiredGroups = 3 // context, category, type
)

// EntryFields holds the 17 scalar fields of a serialized entry. The field
// order follows the code argument order used by color tables: value, scheme,
// meaning.
type EntryFields struct {
	TerminologyContextName string

	CategoryValue, CategoryScheme, CategoryMeaning                   string
	TypeValue, TypeScheme, TypeMeaning                               string
	ModifierValue, ModifierScheme, ModifierMeaning                   string
	AnatomicContextName                                              string
	RegionValue, RegionScheme, RegionMeaning                         string
	RegionModifierValue, RegionModifierScheme, RegionModifierMeaning string
}

// Serialize renders the fields as a single string. It never fails; every
// field is escaped so delimiters inside values survive the round trip.
func Serialize(f EntryFields) string {
	groups := [entryGroups]string{
		escapeField(f.TerminologyContextName),
		codeGroup(f.CategoryScheme, f.CategoryValue, f.CategoryMeaning),
		codeGroup(f.TypeScheme, f.TypeValue, f.TypeMeaning),
		codeGroup(f.ModifierScheme, f.ModifierValue, f.ModifierMeaning),
		escapeField(f.AnatomicContextName),
		codeGroup(f.RegionScheme, f.RegionValue, f.RegionMeaning),
		codeGroup(f.RegionModifierScheme, f.RegionModifierValue, f.RegionModifierMeaning),
	}
	return strings.Join(groups[:], groupSeparator)
}

func codeGroup(scheme, value, meaning string) string {
	return escapeField(scheme) + codeSeparator + escapeField(value) + codeSeparator + escapeField(meaning)
}

// Deserialize parses a serialized entry. Missing trailing groups (modifier,
// anatomic context, region, region modifier) map to empty fields.
func Deserialize(s string) (EntryFields, error) {
	var f EntryFields

	groups := strings.Split(s, groupSeparator)
	if len(groups) > entryGroups {
		return f, fmt.Errorf("%w: %d groups, at most %d allowed", ErrMalformedEntryString, len(groups), entryGroups)
	}
	if len(groups) < requiredGroups {
		return f, fmt.Errorf("%w: %d groups, at least %d required", ErrMalformedEntryString, len(groups), requiredGroups)
	}
	for len(groups) < entryGroups {
		groups = append(groups, "")
	}

	var err error
	if f.TerminologyContextName, err = parseNameGroup(groups[0], "terminology context"); err != nil {
		return EntryFields{}, err
	}
	if f.AnatomicContextName, err = parseNameGroup(groups[4], "anatomic context"); err != nil {
		return EntryFields{}, err
	}

	codes := []struct {
		what                  string
		scheme, value, meaning *string
	}{
		{"category", &f.CategoryScheme, &f.CategoryValue, &f.CategoryMeaning},
		{"type", &f.TypeScheme, &f.TypeValue, &f.TypeMeaning},
		{"modifier", &f.ModifierScheme, &f.ModifierValue, &f.ModifierMeaning},
		{"region", &f.RegionScheme, &f.RegionValue, &f.RegionMeaning},
		{"region modifier", &f.RegionModifierScheme, &f.RegionModifierValue, &f.RegionModifierMeaning},
	}
	positions := []int{1, 2, 3, 5, 6}
	for i, c := range codes {
		id, err := parseCodeGroup(groups[positions[i]], c.what)
		if err != nil {
			return EntryFields{}, err
		}
		*c.scheme, *c.value, *c.meaning = id.CodingSchemeDesignator, id.CodeValue, id.CodeMeaning
	}
	return f, nil
}

func parseNameGroup(group, what string) (string, error) {
	if strings.Contains(group, codeSeparator) {
		return "", fmt.Errorf("%w: %s name contains unescaped %q", ErrMalformedEntryString, what, codeSeparator)
	}
	name, err := unescapeField(group)
	if err != nil {
		return "", fmt.Errorf("%w: %s name: %v", ErrMalformedEntryString, what, err)
	}
	return name, nil
}

// parseCodeGroup accepts "scheme^value^meaning" or an empty group.
func parseCodeGroup(group, what string) (CodeIdentifier, error) {
	if group == "" {
		return CodeIdentifier{}, nil
	}
	parts := strings.Split(group, codeSeparator)
	if len(parts) != 3 {
		return CodeIdentifier{}, fmt.Errorf("%w: %s has %d parts, want 3", ErrMalformedEntryString, what, len(parts))
	}
	var id CodeIdentifier
	dst := []*string{&id.CodingSchemeDesignator, &id.CodeValue, &id.CodeMeaning}
	for i, p := range parts {
		v, err := unescapeField(p)
		if err != nil {
			return CodeIdentifier{}, fmt.Errorf("%w: %s: %v", ErrMalformedEntryString, what, err)
		}
		*dst[i] = v
	}
	return id, nil
}

// escapeField percent-encodes the escape character and both delimiters.
func escapeField(s string) string {
	if !strings.ContainsAny(s, "%~^") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '%', '~', '^':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescapeField(s string) (string, error) {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != escapeChar {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape at offset %d", i)
		}
		hi, okHi := unhex(s[i+1])
		lo, okLo := unhex(s[i+2])
		if !okHi || !okLo {
			return "", fmt.Errorf("invalid escape %q at offset %d", s[i:i+3], i)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// FieldsOf flattens an entry. Absent optional levels become empty fields.
func FieldsOf(e Entry) EntryFields {
	f := EntryFields{
		TerminologyContextName: e.TerminologyContextName,
		CategoryValue:          e.Category.CodeValue,
		CategoryScheme:         e.Category.CodingSchemeDesignator,
		CategoryMeaning:        e.Category.CodeMeaning,
		TypeValue:              e.Type.CodeValue,
		TypeScheme:             e.Type.CodingSchemeDesignator,
		TypeMeaning:            e.Type.CodeMeaning,
		AnatomicContextName:    e.AnatomicContextName,
	}
	if m := e.TypeModifier; m != nil {
		f.ModifierValue, f.ModifierScheme, f.ModifierMeaning = m.CodeValue, m.CodingSchemeDesignator, m.CodeMeaning
	}
	if r := e.AnatomicRegion; r != nil {
		f.RegionValue, f.RegionScheme, f.RegionMeaning = r.CodeValue, r.CodingSchemeDesignator, r.CodeMeaning
	}
	if m := e.AnatomicRegionModifier; m != nil {
		f.RegionModifierValue, f.RegionModifierScheme, f.RegionModifierMeaning = m.CodeValue, m.CodingSchemeDesignator, m.CodeMeaning
	}
	return f
}

// Entry converts the fields to an entry. An optional level whose three fields
// are all empty is absent.
func (f EntryFields) Entry() (Entry, error) {
	e := Entry{
		TerminologyContextName: f.TerminologyContextName,
		Category:               NewCodeIdentifier(f.CategoryScheme, f.CategoryValue, f.CategoryMeaning),
		Type:                   NewCodeIdentifier(f.TypeScheme, f.TypeValue, f.TypeMeaning),
		TypeModifier:           optionalID(f.ModifierScheme, f.ModifierValue, f.ModifierMeaning),
		AnatomicContextName:    f.AnatomicContextName,
		AnatomicRegion:         optionalID(f.RegionScheme, f.RegionValue, f.RegionMeaning),
		AnatomicRegionModifier: optionalID(f.RegionModifierScheme, f.RegionModifierValue, f.RegionModifierMeaning),
	}
	if err := e.Validate(); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrMalformedEntryString, err)
	}
	return e, nil
}

func optionalID(scheme, value, meaning string) *CodeIdentifier {
	id := NewCodeIdentifier(scheme, value, meaning)
	if id.IsEmpty() {
		return nil
	}
	return &id
}

// SerializeEntry renders an entry as a single string.
func SerializeEntry(e Entry) string {
	return Serialize(FieldsOf(e))
}

// DeserializeEntry parses a serialized entry.
func DeserializeEntry(s string) (Entry, error) {
	f, err := Deserialize(s)
	if err != nil {
		return Entry{}, err
	}
	return f.Entry()
}
