package fhir

import (
	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/terminologies/terminology"
)

// Well-known coding scheme designators and their FHIR system URIs.
var systems = map[string]string{
	"SCT":    "http://snomed.info/sct",
	"SRT":    "http://snomed.info/srt",
	"DCM":    "http://dicom.nema.org/resources/ontology/DCM",
	"LN":     "http://loinc.org",
	"UMLS":   "http://www.nlm.nih.gov/research/umls",
	"FMA":    "http://purl.org/sig/ont/fma",
	"RADLEX": "http://radlex.org",
	"NCIt":   "http://ncicb.nci.nih.gov/xml/owl/EVS/Thesaurus.owl",
	"UCUM":   "http://unitsofmeasure.org",
}

var schemes = func() map[string]string {
	m := make(map[string]string, len(systems))
	for scheme, system := range systems {
		m[system] = scheme
	}
	return m
}()

// SystemFor returns the FHIR code system URI of a coding scheme designator.
// Unknown designators are returned unchanged.
func SystemFor(scheme string) string {
	if system, ok := systems[scheme]; ok {
		return system
	}
	return scheme
}

// SchemeFor returns the coding scheme designator of a FHIR code system URI.
// Unknown systems are returned unchanged.
func SchemeFor(system string) string {
	if scheme, ok := schemes[system]; ok {
		return scheme
	}
	return system
}

// ToCoding converts a code identifier to a FHIR Coding.
// An empty CodeMeaning leaves Display unset.
func ToCoding(id terminology.CodeIdentifier) r4.Coding {
	c := r4.Coding{
		System: ptr(SystemFor(id.CodingSchemeDesignator)),
		Code:   ptr(id.CodeValue),
	}
	if id.CodeMeaning != "" {
		c.Display = ptr(id.CodeMeaning)
	}
	return c
}

// FromCoding converts a FHIR Coding back to a code identifier.
func FromCoding(c r4.Coding) terminology.CodeIdentifier {
	return terminology.NewCodeIdentifier(SchemeFor(deref(c.System)), deref(c.Code), deref(c.Display))
}

// ToCodeableConcept wraps one or more identifiers in a CodeableConcept.
// The text is the meaning of the first identifier.
func ToCodeableConcept(ids ...terminology.CodeIdentifier) r4.CodeableConcept {
	var cc r4.CodeableConcept
	for _, id := range ids {
		cc.Coding = append(cc.Coding, ToCoding(id))
	}
	if len(ids) > 0 && ids[0].CodeMeaning != "" {
		cc.Text = ptr(ids[0].CodeMeaning)
	}
	return cc
}

// Concepts holds the concepts of an exported entry.
type Concepts struct {
	// Morphology carries the type coding followed by the category coding.
	Morphology r4.CodeableConcept

	// Location is nil when the entry has no anatomic region.
	Location *r4.CodeableConcept

	// Qualifiers holds the type modifier and region modifier, when present.
	Qualifiers []r4.CodeableConcept
}

// EntryConcepts converts an entry to FHIR concepts.
func EntryConcepts(e terminology.Entry) Concepts {
	c := Concepts{Morphology: ToCodeableConcept(e.Type, e.Category)}
	if e.TypeModifier != nil {
		c.Qualifiers = append(c.Qualifiers, ToCodeableConcept(*e.TypeModifier))
	}
	if e.AnatomicRegion != nil {
		loc := ToCodeableConcept(*e.AnatomicRegion)
		c.Location = &loc
		if e.AnatomicRegionModifier != nil {
			c.Qualifiers = append(c.Qualifiers, ToCodeableConcept(*e.AnatomicRegionModifier))
		}
	}
	return c
}

func ptr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
