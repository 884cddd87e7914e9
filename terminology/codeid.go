package terminology

import "fmt"

// CodeIdentifier is the information needed to uniquely identify a code.
// CodeMeaning is the human readable name and is not part of the identity.
type CodeIdentifier struct {
	CodingSchemeDesignator string `json:"CodingSchemeDesignator"`
	CodeValue              string `json:"CodeValue"`
	CodeMeaning            string `json:"CodeMeaning"`
}

// NewCodeIdentifier creates a CodeIdentifier.
func NewCodeIdentifier(scheme, value, meaning string) CodeIdentifier {
	return CodeIdentifier{
		CodingSchemeDesignator: scheme,
		CodeValue:              value,
		CodeMeaning:            meaning,
	}
}

// Equal reports whether two identifiers denote the same code.
// Comparison is case-sensitive and ignores CodeMeaning.
func (c CodeIdentifier) Equal(other CodeIdentifier) bool {
	return c.CodingSchemeDesignator == other.CodingSchemeDesignator &&
		c.CodeValue == other.CodeValue
}

// IsEmpty returns true if all three fields are empty.
func (c CodeIdentifier) IsEmpty() bool {
	return c.CodingSchemeDesignator == "" && c.CodeValue == "" && c.CodeMeaning == ""
}

// Key returns the lookup key of the identifier.
func (c CodeIdentifier) Key() CodeKey {
	return CodeKey{Scheme: c.CodingSchemeDesignator, Value: c.CodeValue}
}

// String returns "meaning (scheme:value)", or "scheme:value" when there is no meaning.
func (c CodeIdentifier) String() string {
	if c.CodeMeaning == "" {
		return c.CodingSchemeDesignator + ":" + c.CodeValue
	}
	return fmt.Sprintf("%s (%s:%s)", c.CodeMeaning, c.CodingSchemeDesignator, c.CodeValue)
}

// CodeKey is the identity part of a CodeIdentifier, usable as a map key.
type CodeKey struct {
	Scheme string
	Value  string
}

// String returns "scheme:value".
func (k CodeKey) String() string {
	return k.Scheme + ":" + k.Value
}
