package terminology

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// schemaKey is the optional top-level key naming the JSON schema of a document.
const schemaKey = "@schema"

// Format identifies the JSON schema of a dictionary document.
type Format string

// Supported document formats.
const (
	// FormatTerminology is a segmentation category and type context
	FormatTerminology Format = "terminology"
	// FormatAnatomic is an anatomic context
	FormatAnatomic Format = "anatomic"
	// FormatSegmentDescriptor is dcmqi segmentation metadata
	FormatSegmentDescriptor Format = "segment-descriptor"
)

const schemaBaseURL = "https://raw.githubusercontent.com/qiicr/dcmqi/master/doc/schemas/"

// formatConfig holds format-specific configuration.
type formatConfig struct {
	// Schema is the file name of the JSON schema a document declares
	Schema string
}

var formatConfigs = map[Format]formatConfig{
	FormatTerminology:       {Schema: "segment-context-schema.json"},
	FormatAnatomic:          {Schema: "anatomic-context-schema.json"},
	FormatSegmentDescriptor: {Schema: "seg-schema.json"},
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// IsValid returns true if this is a supported format.
func (f Format) IsValid() bool {
	_, ok := formatConfigs[f]
	return ok
}

// SchemaURL returns the JSON schema URL of a format, or "" when unknown.
func (f Format) SchemaURL() string {
	cfg, ok := formatConfigs[f]
	if !ok {
		return ""
	}
	return schemaBaseURL + cfg.Schema + "#"
}

// FormatOfSchema returns the format whose schema file name matches url.
// Only the last path element is compared, so mirrors and pinned revisions
// of the dcmqi schemas are recognized.
func FormatOfSchema(url string) (Format, bool) {
	url, _, _ = strings.Cut(url, "#")
	url, _, _ = strings.Cut(url, "?")
	name := path.Base(strings.TrimSpace(url))
	for f, cfg := range formatConfigs {
		if cfg.Schema == name {
			return f, true
		}
	}
	return "", false
}

// formatOf returns the document format of a context kind.
func formatOf(k Kind) Format {
	if k == KindAnatomic {
		return FormatAnatomic
	}
	return FormatTerminology
}

// checkSchema fails when doc declares a known schema other than want.
// A missing or unrecognized schema is accepted.
func checkSchema(doc map[string]json.RawMessage, want Format) error {
	raw, ok := doc[schemaKey]
	if !ok {
		return nil
	}
	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return fmt.Errorf("%w: %s is not a string", ErrMalformedDictionary, schemaKey)
	}
	if got, known := FormatOfSchema(url); known && got != want {
		return fmt.Errorf("%w: %s declares a %s document, expected %s", ErrMalformedDictionary, schemaKey, got, want)
	}
	return nil
}
