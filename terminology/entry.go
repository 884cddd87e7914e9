package terminology

import (
	"fmt"
	"strings"
)

// Entry is a terminology selection spanning both namespaces: a category, a
// type and optional type modifier from a terminology, plus an optional
// anatomic region and region modifier from an anatomic context.
//
// An Entry stores identifiers and cached code meanings only. It never holds
// references into a context tree, so it stays valid when contexts are reloaded.
// Optional levels are nil when absent; a non-nil identifier with empty fields
// is a present level.
type Entry struct {
	TerminologyContextName string
	Category               CodeIdentifier
	Type                   CodeIdentifier
	TypeModifier           *CodeIdentifier

	AnatomicContextName    string
	AnatomicRegion         *CodeIdentifier
	AnatomicRegionModifier *CodeIdentifier
}

// Clone returns a copy that shares no pointers with e.
func (e Entry) Clone() Entry {
	c := e
	c.TypeModifier = cloneID(e.TypeModifier)
	c.AnatomicRegion = cloneID(e.AnatomicRegion)
	c.AnatomicRegionModifier = cloneID(e.AnatomicRegionModifier)
	return c
}

func cloneID(id *CodeIdentifier) *CodeIdentifier {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// Validate checks that no modifier is present without the level it modifies.
func (e Entry) Validate() error {
	if e.TypeModifier != nil && e.Type.CodingSchemeDesignator == "" && e.Type.CodeValue == "" {
		return fmt.Errorf("%w: type modifier %s has no type", ErrOrphanModifier, e.TypeModifier.Key())
	}
	if e.AnatomicRegionModifier != nil && e.AnatomicRegion == nil {
		return fmt.Errorf("%w: region modifier %s has no region", ErrOrphanModifier, e.AnatomicRegionModifier.Key())
	}
	return nil
}

// Equal reports whether two entries select the same codes.
// Every level must match under CodeIdentifier.Equal and both entries must
// populate the same optional levels. Context names and code meanings are not
// compared.
func (e Entry) Equal(other Entry) bool {
	return e.Category.Equal(other.Category) &&
		e.Type.Equal(other.Type) &&
		optionalEqual(e.TypeModifier, other.TypeModifier) &&
		optionalEqual(e.AnatomicRegion, other.AnatomicRegion) &&
		optionalEqual(e.AnatomicRegionModifier, other.AnatomicRegionModifier)
}

func optionalEqual(a, b *CodeIdentifier) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// EntriesEqualString compares two serialized entries.
func EntriesEqualString(a, b string) (bool, error) {
	ea, err := DeserializeEntry(a)
	if err != nil {
		return false, err
	}
	eb, err := DeserializeEntry(b)
	if err != nil {
		return false, err
	}
	return ea.Equal(eb), nil
}

// Tagged is implemented by any object carrying a serialized terminology entry.
type Tagged interface {
	// TerminologyEntry returns the serialized entry and whether one is set.
	TerminologyEntry() (string, bool)
}

// SegmentEntriesEqual compares the terminology assignments of two objects.
// Two untagged objects are equal; a tagged and an untagged object are not.
func SegmentEntriesEqual(a, b Tagged) (bool, error) {
	sa, okA := a.TerminologyEntry()
	sb, okB := b.TerminologyEntry()
	if !okA || !okB {
		return okA == okB, nil
	}
	return EntriesEqualString(sa, sb)
}

// InfoString renders an entry for display, for example in a tooltip.
// The output is not meant to be parsed back.
func InfoString(e Entry) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	code := func(id *CodeIdentifier) string {
		if id == nil || id.IsEmpty() {
			return ""
		}
		return id.String()
	}

	line("Terminology", e.TerminologyContextName)
	line("Category", code(&e.Category))
	line("Type", code(&e.Type))
	line("Modifier", code(e.TypeModifier))
	if e.AnatomicRegion != nil {
		line("Anatomic context", e.AnatomicContextName)
		line("Region", code(e.AnatomicRegion))
		line("Region modifier", code(e.AnatomicRegionModifier))
	}
	return b.String()
}
