package terminology

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// matcher performs case-insensitive substring matching using Unicode case
// folding. A matcher is not safe for concurrent use.
type matcher struct {
	folder cases.Caser
	query  string
}

func newMatcher(query string) *matcher {
	m := &matcher{folder: cases.Fold()}
	m.query = m.folder.String(query)
	return m
}

// match reports whether the query occurs in the node's code meaning or in
// one of its alternate search terms. The empty query matches everything.
func (m *matcher) match(n *Node) bool {
	if m.query == "" {
		return true
	}
	if strings.Contains(m.folder.String(n.ID.CodeMeaning), m.query) {
		return true
	}
	for _, term := range n.SearchTerms {
		if strings.Contains(m.folder.String(term), m.query) {
			return true
		}
	}
	return false
}

// filter returns the matching nodes in declaration order.
func filter(nodes []*Node, query string) []*Node {
	m := newMatcher(query)
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if m.match(n) {
			out = append(out, n)
		}
	}
	return out
}

// search runs a cached search over the children returned by children.
func (s *Store) search(snap *snapshot, key searchKey, children func() ([]*Node, error)) ([]CodeIdentifier, error) {
	key.generation = snap.generation
	if s.cache != nil {
		ids, ok := s.cache.get(key)
		s.observer.RecordCacheLookup(ok)
		if ok {
			s.observer.RecordSearch()
			return ids, nil
		}
	}

	nodes, err := children()
	if err != nil {
		return nil, err
	}
	ids := nodeIDs(filter(nodes, key.query))

	s.observer.RecordSearch()
	if s.cache != nil {
		s.cache.set(key, ids)
	}
	return ids, nil
}

// FindCategories returns the categories of a terminology whose name contains query.
func (s *Store) FindCategories(term, query string) ([]CodeIdentifier, error) {
	snap := s.snap()
	key := searchKey{level: "category", context: term, query: query}
	return s.search(snap, key, func() ([]*Node, error) {
		t, err := snap.terminology(term)
		if err != nil {
			return nil, err
		}
		return t.Categories, nil
	})
}

// FindTypes returns the types of a category whose name contains query.
func (s *Store) FindTypes(term string, categoryID CodeIdentifier, query string) ([]CodeIdentifier, error) {
	snap := s.snap()
	key := searchKey{level: "type", context: term, parent: categoryID.Key(), query: query}
	return s.search(snap, key, func() ([]*Node, error) {
		c, err := snap.category(term, categoryID)
		if err != nil {
			return nil, err
		}
		return c.Children, nil
	})
}

// FindTypesWithNodes is FindTypes returning the matching type nodes as well,
// which saves a lookup per type when the caller needs their attributes.
func (s *Store) FindTypesWithNodes(term string, categoryID CodeIdentifier, query string) ([]CodeIdentifier, []*Node, error) {
	c, err := s.snap().category(term, categoryID)
	if err != nil {
		return nil, nil, err
	}
	nodes := filter(c.Children, query)
	s.observer.RecordSearch()
	return nodeIDs(nodes), nodes, nil
}

// FindTypeModifiers returns the modifiers of a type whose name contains query.
func (s *Store) FindTypeModifiers(term string, categoryID, typeID CodeIdentifier, query string) ([]CodeIdentifier, error) {
	snap := s.snap()
	key := searchKey{level: "type modifier", context: term, parent: typeID.Key(), grandpa: categoryID.Key(), query: query}
	return s.search(snap, key, func() ([]*Node, error) {
		t, err := snap.typ(term, categoryID, typeID)
		if err != nil {
			return nil, err
		}
		return t.Children, nil
	})
}

// FindRegions returns the regions of an anatomic context whose name contains query.
func (s *Store) FindRegions(anat, query string) ([]CodeIdentifier, error) {
	snap := s.snap()
	key := searchKey{level: "region", context: anat, query: query}
	return s.search(snap, key, func() ([]*Node, error) {
		a, err := snap.anatomic(anat)
		if err != nil {
			return nil, err
		}
		return a.Regions, nil
	})
}

// FindRegionModifiers returns the modifiers of a region whose name contains query.
func (s *Store) FindRegionModifiers(anat string, regionID CodeIdentifier, query string) ([]CodeIdentifier, error) {
	snap := s.snap()
	key := searchKey{level: "region modifier", context: anat, parent: regionID.Key(), query: query}
	return s.search(snap, key, func() ([]*Node, error) {
		r, err := snap.region(anat, regionID)
		if err != nil {
			return nil, err
		}
		return r.Children, nil
	})
}

// FindTypeBySlicerLabel scans a terminology for a type or type modifier whose
// "3dSlicerLabel" equals label and returns the first match in declaration
// order. Anatomic contexts are not searched.
func (s *Store) FindTypeBySlicerLabel(term, label string) (Entry, error) {
	t, err := s.snap().terminology(term)
	if err != nil {
		return Entry{}, err
	}
	if label != "" {
		for _, c := range t.Categories {
			for _, typ := range c.Children {
				if typ.SlicerLabel == label {
					s.observer.RecordLookup(true)
					return Entry{TerminologyContextName: term, Category: c.ID, Type: typ.ID}, nil
				}
				for _, mod := range typ.Children {
					if mod.SlicerLabel == label {
						id := mod.ID
						s.observer.RecordLookup(true)
						return Entry{TerminologyContextName: term, Category: c.ID, Type: typ.ID, TypeModifier: &id}, nil
					}
				}
			}
		}
	}
	s.observer.RecordLookup(false)
	return Entry{}, fmt.Errorf("%w: %s %q in terminology %q", ErrNotFound, SlicerLabelAttribute, label, term)
}

// candidates returns preferred names that exist, or all names when preferred is empty.
func candidates(preferred, all []string, exists func(string) bool) []string {
	if len(preferred) == 0 {
		return all
	}
	out := make([]string, 0, len(preferred))
	seen := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		if !seen[name] && exists(name) {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// FindTerminologyEntries returns one entry per terminology containing the
// given category, type and optional type modifier. When preferred is not
// empty only those terminologies are searched, in that order; otherwise every
// terminology is searched in insertion order. Code meanings in the returned
// entries come from each terminology.
func (s *Store) FindTerminologyEntries(categoryID, typeID CodeIdentifier, modifierID *CodeIdentifier, preferred []string) []Entry {
	snap := s.snap()
	names := candidates(preferred, snap.terminologyNames, func(n string) bool {
		_, ok := snap.terminologies[n]
		return ok
	})

	var found []Entry
	for _, name := range names {
		typ, err := snap.typ(name, categoryID, typeID)
		if err != nil {
			continue
		}
		cat, _ := snap.terminologies[name].Category(categoryID)
		e := Entry{TerminologyContextName: name, Category: cat.ID, Type: typ.ID}
		if modifierID != nil {
			mod, ok := typ.Child(*modifierID)
			if !ok {
				continue
			}
			id := mod.ID
			e.TypeModifier = &id
		}
		found = append(found, e)
	}
	return found
}

// FindTerminologyNames returns the names of the terminologies containing the
// given codes. See FindTerminologyEntries.
func (s *Store) FindTerminologyNames(categoryID, typeID CodeIdentifier, modifierID *CodeIdentifier, preferred []string) []string {
	entries := s.FindTerminologyEntries(categoryID, typeID, modifierID, preferred)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.TerminologyContextName
	}
	return names
}

// FindAnatomicContextEntries returns one entry per anatomic context containing
// the given region and optional region modifier. Only the anatomic fields of
// the returned entries are populated.
func (s *Store) FindAnatomicContextEntries(regionID CodeIdentifier, modifierID *CodeIdentifier, preferred []string) []Entry {
	snap := s.snap()
	names := candidates(preferred, snap.anatomicNames, func(n string) bool {
		_, ok := snap.anatomics[n]
		return ok
	})

	var found []Entry
	for _, name := range names {
		region, err := snap.region(name, regionID)
		if err != nil {
			continue
		}
		rid := region.ID
		e := Entry{AnatomicContextName: name, AnatomicRegion: &rid}
		if modifierID != nil {
			mod, ok := region.Child(*modifierID)
			if !ok {
				continue
			}
			mid := mod.ID
			e.AnatomicRegionModifier = &mid
		}
		found = append(found, e)
	}
	return found
}

// FindAnatomicContextNames returns the names of the anatomic contexts
// containing the given codes. See FindAnatomicContextEntries.
func (s *Store) FindAnatomicContextNames(regionID CodeIdentifier, modifierID *CodeIdentifier, preferred []string) []string {
	entries := s.FindAnatomicContextEntries(regionID, modifierID, preferred)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.AnatomicContextName
	}
	return names
}
