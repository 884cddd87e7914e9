package fhir

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofhir/fhir/r4"
	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/types"

	"github.com/gofhir/terminologies/terminology"
)

// ResourceType of exported entry documents.
const ResourceType = "BodyStructure"

type document struct {
	ResourceType      string               `json:"resourceType"`
	Description       string               `json:"description,omitempty"`
	Morphology        r4.CodeableConcept   `json:"morphology"`
	Location          *r4.CodeableConcept  `json:"location,omitempty"`
	LocationQualifier []r4.CodeableConcept `json:"locationQualifier,omitempty"`
}

// Document renders an entry as a BodyStructure-shaped JSON document.
func Document(e terminology.Entry) ([]byte, error) {
	c := EntryConcepts(e)
	doc := document{
		ResourceType:      ResourceType,
		Description:       e.TerminologyContextName,
		Morphology:        c.Morphology,
		Location:          c.Location,
		LocationQualifier: c.Qualifiers,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry document: %w", err)
	}
	return data, nil
}

// Matcher evaluates FHIRPath predicates over exported entries.
// Compiled expressions are cached; a Matcher is safe for concurrent use.
type Matcher struct {
	mu    sync.RWMutex
	cache map[string]*fhirpath.Expression
}

// NewMatcher creates a new Matcher.
func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]*fhirpath.Expression)}
}

// Compile checks that an expression is valid and caches it.
func (m *Matcher) Compile(expression string) error {
	_, err := m.getOrCompile(expression)
	return err
}

// Match reports whether expression holds for the entry.
//
// The result follows FHIRPath truthiness rules:
//   - Empty collection = false
//   - Single boolean = that boolean's value
//   - Non-empty collection = true
func (m *Matcher) Match(expression string, e terminology.Entry) (bool, error) {
	compiled, err := m.getOrCompile(expression)
	if err != nil {
		return false, err
	}
	data, err := Document(e)
	if err != nil {
		return false, err
	}
	result, err := compiled.Evaluate(data)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate FHIRPath expression '%s': %w", expression, err)
	}
	return toBool(result), nil
}

// Filter returns the entries for which expression holds, in input order.
func (m *Matcher) Filter(expression string, entries []terminology.Entry) ([]terminology.Entry, error) {
	var out []terminology.Entry
	for _, e := range entries {
		ok, err := m.Match(expression, e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// CacheSize returns the number of cached expressions.
func (m *Matcher) CacheSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

func (m *Matcher) getOrCompile(expression string) (*fhirpath.Expression, error) {
	m.mu.RLock()
	compiled, ok := m.cache[expression]
	m.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := fhirpath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile FHIRPath expression '%s': %w", expression, err)
	}

	m.mu.Lock()
	m.cache[expression] = compiled
	m.mu.Unlock()
	return compiled, nil
}

func toBool(result types.Collection) bool {
	if len(result) == 0 {
		return false
	}
	if len(result) == 1 {
		if b, ok := result[0].(types.Boolean); ok {
			return b.Bool()
		}
	}
	return true
}
