package terminology

import "fmt"

func (s *snapshot) terminology(name string) (*TerminologyContext, error) {
	t, ok := s.terminologies[name]
	if !ok {
		return nil, fmt.Errorf("%w: terminology %q", ErrNotFound, name)
	}
	return t, nil
}

func (s *snapshot) anatomic(name string) (*AnatomicContext, error) {
	a, ok := s.anatomics[name]
	if !ok {
		return nil, fmt.Errorf("%w: anatomic context %q", ErrNotFound, name)
	}
	return a, nil
}

func (s *snapshot) category(term string, categoryID CodeIdentifier) (*Node, error) {
	t, err := s.terminology(term)
	if err != nil {
		return nil, err
	}
	c, ok := t.Category(categoryID)
	if !ok {
		return nil, fmt.Errorf("%w: category %s in terminology %q", ErrNotFound, categoryID.Key(), term)
	}
	return c, nil
}

func (s *snapshot) typ(term string, categoryID, typeID CodeIdentifier) (*Node, error) {
	c, err := s.category(term, categoryID)
	if err != nil {
		return nil, err
	}
	t, ok := c.Child(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: type %s in category %s", ErrNotFound, typeID.Key(), categoryID.Key())
	}
	return t, nil
}

func (s *snapshot) typeModifier(term string, categoryID, typeID, modifierID CodeIdentifier) (*Node, error) {
	t, err := s.typ(term, categoryID, typeID)
	if err != nil {
		return nil, err
	}
	m, ok := t.Child(modifierID)
	if !ok {
		return nil, fmt.Errorf("%w: type modifier %s in type %s", ErrNotFound, modifierID.Key(), typeID.Key())
	}
	return m, nil
}

func (s *snapshot) region(anat string, regionID CodeIdentifier) (*Node, error) {
	a, err := s.anatomic(anat)
	if err != nil {
		return nil, err
	}
	r, ok := a.Region(regionID)
	if !ok {
		return nil, fmt.Errorf("%w: region %s in anatomic context %q", ErrNotFound, regionID.Key(), anat)
	}
	return r, nil
}

func (s *snapshot) regionModifier(anat string, regionID, modifierID CodeIdentifier) (*Node, error) {
	r, err := s.region(anat, regionID)
	if err != nil {
		return nil, err
	}
	m, ok := r.Child(modifierID)
	if !ok {
		return nil, fmt.Errorf("%w: region modifier %s in region %s", ErrNotFound, modifierID.Key(), regionID.Key())
	}
	return m, nil
}

// observe reports a lookup outcome and passes the result through.
func (s *Store) observe(n *Node, err error) (*Node, error) {
	s.observer.RecordLookup(err == nil)
	return n, err
}

// Category returns a category of a terminology.
func (s *Store) Category(term string, categoryID CodeIdentifier) (*Node, error) {
	return s.observe(s.snap().category(term, categoryID))
}

// Type returns a type of a terminology category.
func (s *Store) Type(term string, categoryID, typeID CodeIdentifier) (*Node, error) {
	return s.observe(s.snap().typ(term, categoryID, typeID))
}

// TypeModifier returns a modifier of a terminology type.
func (s *Store) TypeModifier(term string, categoryID, typeID, modifierID CodeIdentifier) (*Node, error) {
	return s.observe(s.snap().typeModifier(term, categoryID, typeID, modifierID))
}

// Region returns a region of an anatomic context.
func (s *Store) Region(anat string, regionID CodeIdentifier) (*Node, error) {
	return s.observe(s.snap().region(anat, regionID))
}

// RegionModifier returns a modifier of an anatomic region.
func (s *Store) RegionModifier(anat string, regionID, modifierID CodeIdentifier) (*Node, error) {
	return s.observe(s.snap().regionModifier(anat, regionID, modifierID))
}

// --- Enumeration ---

// Categories returns the category identifiers of a terminology in declaration order.
func (s *Store) Categories(term string) ([]CodeIdentifier, error) {
	t, err := s.snap().terminology(term)
	if err != nil {
		return nil, err
	}
	return nodeIDs(t.Categories), nil
}

// Types returns the type identifiers of a category in declaration order.
func (s *Store) Types(term string, categoryID CodeIdentifier) ([]CodeIdentifier, error) {
	c, err := s.snap().category(term, categoryID)
	if err != nil {
		return nil, err
	}
	return c.ChildIDs(), nil
}

// TypeModifiers returns the modifier identifiers of a type in declaration order.
func (s *Store) TypeModifiers(term string, categoryID, typeID CodeIdentifier) ([]CodeIdentifier, error) {
	t, err := s.snap().typ(term, categoryID, typeID)
	if err != nil {
		return nil, err
	}
	return t.ChildIDs(), nil
}

// Regions returns the region identifiers of an anatomic context in declaration order.
func (s *Store) Regions(anat string) ([]CodeIdentifier, error) {
	a, err := s.snap().anatomic(anat)
	if err != nil {
		return nil, err
	}
	return nodeIDs(a.Regions), nil
}

// RegionModifiers returns the modifier identifiers of a region in declaration order.
func (s *Store) RegionModifiers(anat string, regionID CodeIdentifier) ([]CodeIdentifier, error) {
	r, err := s.snap().region(anat, regionID)
	if err != nil {
		return nil, err
	}
	return r.ChildIDs(), nil
}

// NumberOfCategories returns the number of categories in a terminology.
func (s *Store) NumberOfCategories(term string) (int, error) {
	t, err := s.snap().terminology(term)
	if err != nil {
		return 0, err
	}
	return len(t.Categories), nil
}

// NumberOfTypes returns the number of types in a category.
func (s *Store) NumberOfTypes(term string, categoryID CodeIdentifier) (int, error) {
	c, err := s.snap().category(term, categoryID)
	if err != nil {
		return 0, err
	}
	return len(c.Children), nil
}

// NumberOfTypeModifiers returns the number of modifiers of a type.
func (s *Store) NumberOfTypeModifiers(term string, categoryID, typeID CodeIdentifier) (int, error) {
	t, err := s.snap().typ(term, categoryID, typeID)
	if err != nil {
		return 0, err
	}
	return len(t.Children), nil
}

// NumberOfRegions returns the number of regions in an anatomic context.
func (s *Store) NumberOfRegions(anat string) (int, error) {
	a, err := s.snap().anatomic(anat)
	if err != nil {
		return 0, err
	}
	return len(a.Regions), nil
}

// NumberOfRegionModifiers returns the number of modifiers of a region.
func (s *Store) NumberOfRegionModifiers(anat string, regionID CodeIdentifier) (int, error) {
	r, err := s.snap().region(anat, regionID)
	if err != nil {
		return 0, err
	}
	return len(r.Children), nil
}

func nth(nodes []*Node, index int, what string) (*Node, error) {
	if index < 0 || index >= len(nodes) {
		return nil, fmt.Errorf("%w: %s index %d (have %d)", ErrIndexOutOfRange, what, index, len(nodes))
	}
	return nodes[index], nil
}

// NthCategory returns a category by declaration index.
func (s *Store) NthCategory(term string, index int) (*Node, error) {
	t, err := s.snap().terminology(term)
	if err != nil {
		return nil, err
	}
	return nth(t.Categories, index, "category")
}

// NthType returns a type of a category by declaration index.
func (s *Store) NthType(term string, categoryID CodeIdentifier, index int) (*Node, error) {
	c, err := s.snap().category(term, categoryID)
	if err != nil {
		return nil, err
	}
	return nth(c.Children, index, "type")
}

// NthTypeModifier returns a modifier of a type by declaration index.
func (s *Store) NthTypeModifier(term string, categoryID, typeID CodeIdentifier, index int) (*Node, error) {
	t, err := s.snap().typ(term, categoryID, typeID)
	if err != nil {
		return nil, err
	}
	return nth(t.Children, index, "type modifier")
}

// NthRegion returns a region by declaration index.
func (s *Store) NthRegion(anat string, index int) (*Node, error) {
	a, err := s.snap().anatomic(anat)
	if err != nil {
		return nil, err
	}
	return nth(a.Regions, index, "region")
}

// NthRegionModifier returns a modifier of a region by declaration index.
func (s *Store) NthRegionModifier(anat string, regionID CodeIdentifier, index int) (*Node, error) {
	r, err := s.snap().region(anat, regionID)
	if err != nil {
		return nil, err
	}
	return nth(r.Children, index, "region modifier")
}

// --- Composed resolution ---

// ResolvedEntry is an entry whose every populated level was found in the store.
type ResolvedEntry struct {
	// Entry carries the identifiers with code meanings refreshed from the dictionaries.
	Entry Entry

	Category       *Node
	Type           *Node
	TypeModifier   *Node
	Region         *Node
	RegionModifier *Node
}

// ResolveEntry resolves every populated level of an entry against a single
// store snapshot. The first unresolved level fails the whole call.
func (s *Store) ResolveEntry(e Entry) (*ResolvedEntry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	snap := s.snap()
	r := &ResolvedEntry{Entry: e.Clone()}

	var err error
	if r.Category, err = snap.category(e.TerminologyContextName, e.Category); err != nil {
		s.observer.RecordLookup(false)
		return nil, err
	}
	if r.Type, err = snap.typ(e.TerminologyContextName, e.Category, e.Type); err != nil {
		s.observer.RecordLookup(false)
		return nil, err
	}
	r.Entry.Category = r.Category.ID
	r.Entry.Type = r.Type.ID

	if e.TypeModifier != nil {
		if r.TypeModifier, err = snap.typeModifier(e.TerminologyContextName, e.Category, e.Type, *e.TypeModifier); err != nil {
			s.observer.RecordLookup(false)
			return nil, err
		}
		id := r.TypeModifier.ID
		r.Entry.TypeModifier = &id
	}

	if e.AnatomicRegion != nil {
		if r.Region, err = snap.region(e.AnatomicContextName, *e.AnatomicRegion); err != nil {
			s.observer.RecordLookup(false)
			return nil, err
		}
		id := r.Region.ID
		r.Entry.AnatomicRegion = &id

		if e.AnatomicRegionModifier != nil {
			r.RegionModifier, err = snap.regionModifier(e.AnatomicContextName, *e.AnatomicRegion, *e.AnatomicRegionModifier)
			if err != nil {
				s.observer.RecordLookup(false)
				return nil, err
			}
			id := r.RegionModifier.ID
			r.Entry.AnatomicRegionModifier = &id
		}
	}

	s.observer.RecordLookup(true)
	return r, nil
}
