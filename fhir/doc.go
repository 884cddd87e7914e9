// Package fhir exports terminology entries as FHIR R4 data types and
// evaluates FHIRPath expressions over them.
//
// Coding scheme designators are mapped to FHIR code system URIs following the
// DICOM PS3.16 coding scheme table (SCT to http://snomed.info/sct, DCM to
// http://dicom.nema.org/resources/ontology/DCM, and so on). Designators
// without a known URI are kept as the system value.
//
// An entry is exported as a BodyStructure-shaped document:
//
//	{
//	  "resourceType": "BodyStructure",
//	  "morphology": {category and type codings},
//	  "location": {anatomic region coding},
//	  "locationQualifier": [{type modifier}, {region modifier}]
//	}
//
// which is the document FHIRPath expressions are evaluated against:
//
//	m := fhir.NewMatcher()
//	ok, err := m.Match("morphology.coding.where(code = '80891009').exists()", entry)
package fhir
