package terminology

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Top-level keys of dictionary documents.
const (
	terminologyNameKey  = "SegmentationCategoryTypeContextName"
	terminologyCodesKey = "SegmentationCodes"
	categoryKey         = "Category"
	typeKey             = "Type"
	modifierKey         = "Modifier"

	anatomicNameKey  = "AnatomicContextName"
	anatomicCodesKey = "AnatomicCodes"
	regionKey        = "AnatomicRegion"
)

// Code fields present on every node.
const (
	schemeKey  = "CodingSchemeDesignator"
	valueKey   = "CodeValue"
	meaningKey = "CodeMeaning"
)

// level describes one tier of a dictionary tree during parsing.
type level struct {
	name        string
	childrenKey string
	child       *level
}

var (
	modifierLevel       = &level{name: "modifier"}
	typeLevel           = &level{name: "type", childrenKey: modifierKey, child: modifierLevel}
	categoryLevel       = &level{name: "category", childrenKey: typeKey, child: typeLevel}
	regionModifierLevel = &level{name: "region modifier"}
	regionLevel         = &level{name: "region", childrenKey: modifierKey, child: regionModifierLevel}
)

// DetectKind reports whether a dictionary document is a terminology or an
// anatomic context.
func DetectKind(data []byte) (Kind, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedDictionary, err)
	}
	_, isTerm := doc[terminologyNameKey]
	_, isAnat := doc[anatomicNameKey]
	var kind Kind
	switch {
	case isTerm && isAnat:
		return 0, fmt.Errorf("%w: document declares both %s and %s", ErrMalformedDictionary, terminologyNameKey, anatomicNameKey)
	case isTerm:
		kind = KindTerminology
	case isAnat:
		kind = KindAnatomic
	default:
		return 0, fmt.Errorf("%w: neither %s nor %s found", ErrMalformedDictionary, terminologyNameKey, anatomicNameKey)
	}
	if err := checkSchema(doc, formatOf(kind)); err != nil {
		return 0, err
	}
	return kind, nil
}

// ParseTerminology parses and validates a terminology dictionary document.
func ParseTerminology(data []byte) (*TerminologyContext, error) {
	name, nodes, err := parseDocument(data, FormatTerminology, terminologyNameKey, terminologyCodesKey, categoryKey, categoryLevel)
	if err != nil {
		return nil, err
	}
	return newTerminologyContext(name, nodes), nil
}

// ParseAnatomicContext parses and validates an anatomic context dictionary document.
func ParseAnatomicContext(data []byte) (*AnatomicContext, error) {
	name, nodes, err := parseDocument(data, FormatAnatomic, anatomicNameKey, anatomicCodesKey, regionKey, regionLevel)
	if err != nil {
		return nil, err
	}
	return newAnatomicContext(name, nodes), nil
}

func parseDocument(data []byte, format Format, nameKey, codesKey, listKey string, lvl *level) (string, []*Node, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedDictionary, err)
	}
	if err := checkSchema(doc, format); err != nil {
		return "", nil, err
	}

	rawName, ok := doc[nameKey]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %s", ErrMalformedDictionary, nameKey)
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return "", nil, fmt.Errorf("%w: %s is not a string", ErrMalformedDictionary, nameKey)
	}
	if strings.TrimSpace(name) == "" {
		return "", nil, fmt.Errorf("%w: empty %s", ErrMalformedDictionary, nameKey)
	}

	rawCodes, ok := doc[codesKey]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %s", ErrMalformedDictionary, codesKey)
	}
	var codes map[string]json.RawMessage
	if err := json.Unmarshal(rawCodes, &codes); err != nil {
		return "", nil, fmt.Errorf("%w: %s is not an object", ErrMalformedDictionary, codesKey)
	}
	rawList, ok := codes[listKey]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %s.%s", ErrMalformedDictionary, codesKey, listKey)
	}

	nodes, err := parseNodes(rawList, lvl, codesKey+"."+listKey)
	if err != nil {
		return "", nil, err
	}
	return name, nodes, nil
}

func parseNodes(raw json.RawMessage, lvl *level, path string) ([]*Node, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s is not an array", ErrMalformedDictionary, path)
	}

	nodes := make([]*Node, 0, len(items))
	seen := make(map[CodeKey]int, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		n, err := parseNode(item, lvl, itemPath)
		if err != nil {
			return nil, err
		}
		key := n.ID.Key()
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate %s %s (first declared at index %d)",
				ErrMalformedDictionary, itemPath, lvl.name, key, first)
		}
		seen[key] = i
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// sealTerminology validates a context built outside the parser and returns
// an indexed deep copy of it.
func sealTerminology(t *TerminologyContext) (*TerminologyContext, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: missing terminology context", ErrMalformedDictionary)
	}
	if strings.TrimSpace(t.Name) == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrMalformedDictionary, terminologyNameKey)
	}
	categories, err := sealNodes(t.Categories, categoryLevel, terminologyCodesKey+"."+categoryKey)
	if err != nil {
		return nil, err
	}
	return newTerminologyContext(t.Name, categories), nil
}

// sealAnatomicContext is sealTerminology for anatomic contexts.
func sealAnatomicContext(a *AnatomicContext) (*AnatomicContext, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: missing anatomic context", ErrMalformedDictionary)
	}
	if strings.TrimSpace(a.Name) == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrMalformedDictionary, anatomicNameKey)
	}
	regions, err := sealNodes(a.Regions, regionLevel, anatomicCodesKey+"."+regionKey)
	if err != nil {
		return nil, err
	}
	return newAnatomicContext(a.Name, regions), nil
}

func sealNodes(nodes []*Node, lvl *level, path string) ([]*Node, error) {
	sealed := make([]*Node, 0, len(nodes))
	seen := make(map[CodeKey]int, len(nodes))
	for i, n := range nodes {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if n == nil {
			return nil, fmt.Errorf("%w: %s: nil %s", ErrMalformedDictionary, itemPath, lvl.name)
		}
		if n.ID.CodingSchemeDesignator == "" || n.ID.CodeValue == "" {
			return nil, fmt.Errorf("%w: %s: %s has empty %s or %s", ErrMalformedDictionary, itemPath, lvl.name, schemeKey, valueKey)
		}
		key := n.ID.Key()
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate %s %s (first declared at index %d)",
				ErrMalformedDictionary, itemPath, lvl.name, key, first)
		}
		seen[key] = i

		c := n.copyFields()
		if len(n.Children) > 0 {
			if lvl.child == nil {
				return nil, fmt.Errorf("%w: %s: a %s cannot have children", ErrMalformedDictionary, itemPath, lvl.name)
			}
			children, err := sealNodes(n.Children, lvl.child, itemPath+"."+lvl.childrenKey)
			if err != nil {
				return nil, err
			}
			c.Children = children
		}
		c.index = buildIndex(c.Children)
		sealed = append(sealed, c)
	}
	return sealed, nil
}

func parseNode(raw json.RawMessage, lvl *level, path string) (*Node, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformedDictionary, path)
	}

	id, err := parseCode(fields, path)
	if err != nil {
		return nil, err
	}
	if id.CodingSchemeDesignator == "" || id.CodeValue == "" {
		return nil, fmt.Errorf("%w: %s: %s has empty %s or %s", ErrMalformedDictionary, path, lvl.name, schemeKey, valueKey)
	}

	n := &Node{ID: id}
	for key, value := range fields {
		switch key {
		case schemeKey, valueKey, meaningKey:
			continue
		case lvl.childrenKey:
			if lvl.child == nil {
				break
			}
			children, err := parseNodes(value, lvl.child, path+"."+key)
			if err != nil {
				return nil, err
			}
			n.Children = children
			continue
		}
		if err := decodeAttribute(n, key, value); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrMalformedDictionary, path, key, err)
		}
		if n.Attributes == nil {
			n.Attributes = make(map[string]string)
		}
		n.Attributes[key] = rawToString(value)
	}
	n.index = buildIndex(n.Children)
	return n, nil
}

// decodeAttribute sets the typed field backed by key, if any.
func decodeAttribute(n *Node, key string, value json.RawMessage) error {
	var err error
	switch key {
	case ShowAnatomyAttribute:
		n.ShowAnatomy, err = parseBool(value)
		n.HasShowAnatomy = err == nil
	case RecommendedColorAttribute:
		var color Color
		if color, err = parseColor(value); err == nil {
			n.RecommendedColor = &color
		}
	case SlicerLabelAttribute:
		if json.Unmarshal(value, &n.SlicerLabel) != nil {
			err = errors.New("not a string")
		}
	case ContextGroupNameAttribute:
		if json.Unmarshal(value, &n.ContextGroupName) != nil {
			err = errors.New("not a string")
		}
	case SearchTermsAttribute:
		n.SearchTerms, err = parseSearchTerms(value)
	}
	return err
}

// parseCode extracts the required code triple from a JSON object.
func parseCode(fields map[string]json.RawMessage, path string) (CodeIdentifier, error) {
	var id CodeIdentifier
	targets := []struct {
		key string
		dst *string
	}{
		{schemeKey, &id.CodingSchemeDesignator},
		{valueKey, &id.CodeValue},
		{meaningKey, &id.CodeMeaning},
	}
	for _, t := range targets {
		raw, ok := fields[t.key]
		if !ok {
			return id, fmt.Errorf("%w: %s: missing %s", ErrMalformedDictionary, path, t.key)
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return id, fmt.Errorf("%w: %s.%s is not a string", ErrMalformedDictionary, path, t.key)
		}
	}
	return id, nil
}

// parseBool accepts both JSON booleans and the "true"/"false" strings used by
// older dictionaries.
func parseBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("expected boolean")
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func parseColor(raw json.RawMessage) (Color, error) {
	var rgb []int
	if err := json.Unmarshal(raw, &rgb); err != nil {
		return Color{}, fmt.Errorf("expected [r, g, b]")
	}
	if len(rgb) != 3 {
		return Color{}, fmt.Errorf("expected 3 components, got %d", len(rgb))
	}
	for _, c := range rgb {
		if c < 0 || c > 255 {
			return Color{}, fmt.Errorf("component %d out of range", c)
		}
	}
	return Color{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2])}, nil
}

// parseSearchTerms accepts an array of strings or a comma separated string.
func parseSearchTerms(raw json.RawMessage) ([]string, error) {
	var terms []string
	if err := json.Unmarshal(raw, &terms); err == nil {
		return compactTerms(terms), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("expected string or array of strings")
	}
	return compactTerms(strings.Split(s, ",")), nil
}

func compactTerms(terms []string) []string {
	out := terms[:0]
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// rawToString keeps strings unquoted and every other JSON value verbatim.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// Dictionary is a parsed document of either kind. Exactly one of Terminology
// and Anatomic is set, matching Kind.
type Dictionary struct {
	Kind        Kind
	Terminology *TerminologyContext
	Anatomic    *AnatomicContext
}

// Name returns the context name declared by the document.
func (d *Dictionary) Name() string {
	if d.Kind == KindTerminology {
		return d.Terminology.Name
	}
	return d.Anatomic.Name
}

// ParseDictionary detects the kind of a document and parses it. It touches
// no store, so documents can be parsed concurrently and inserted later with
// Store.Put.
func ParseDictionary(data []byte) (*Dictionary, error) {
	kind, err := DetectKind(data)
	if err != nil {
		return nil, err
	}
	d := &Dictionary{Kind: kind}
	if kind == KindTerminology {
		d.Terminology, err = ParseTerminology(data)
	} else {
		d.Anatomic, err = ParseAnatomicContext(data)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
