package terminology

import (
	"errors"
	"testing"
)

func TestResolveLevels(t *testing.T) {
	s := newTestStore(t)

	t.Run("category by code", func(t *testing.T) {
		cat, err := s.Category(testTerminology, NewCodeIdentifier("SRT", "T-D0050", "Tissue"))
		if err != nil {
			t.Fatalf("Category() error = %v", err)
		}
		if cat.ID.CodeMeaning != "Tissue" {
			t.Errorf("CodeMeaning = %q; want Tissue", cat.ID.CodeMeaning)
		}
	})

	t.Run("meaning is ignored", func(t *testing.T) {
		if _, err := s.Category(testTerminology, NewCodeIdentifier("SRT", "T-D0050", "something else")); err != nil {
			t.Errorf("Category() error = %v", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := s.Category(testTerminology, NewCodeIdentifier("SRT", "BOGUS", ""))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v; want ErrNotFound", err)
		}
	})

	t.Run("code comparison is case sensitive", func(t *testing.T) {
		_, err := s.Category(testTerminology, NewCodeIdentifier("srt", "T-D0050", ""))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v; want ErrNotFound", err)
		}
	})

	t.Run("unknown context", func(t *testing.T) {
		_, err := s.Type("missing", tissueID, heartID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v; want ErrNotFound", err)
		}
	})

	tests := []struct {
		name    string
		resolve func() (*Node, error)
		want    CodeIdentifier
		wantErr bool
	}{
		{"type", func() (*Node, error) { return s.Type(testTerminology, tissueID, heartID) }, heartID, false},
		{"type in wrong category", func() (*Node, error) { return s.Type(testTerminology, morphID, heartID) }, CodeIdentifier{}, true},
		{"type modifier", func() (*Node, error) { return s.TypeModifier(testTerminology, tissueID, arteryID, leftID) }, leftID, false},
		{"modifier of type without modifiers", func() (*Node, error) { return s.TypeModifier(testTerminology, tissueID, heartID, leftID) }, CodeIdentifier{}, true},
		{"modifier under missing category", func() (*Node, error) { return s.TypeModifier(testTerminology, lungID, arteryID, leftID) }, CodeIdentifier{}, true},
		{"region", func() (*Node, error) { return s.Region(testAnatomic, lungID) }, lungID, false},
		{"region modifier", func() (*Node, error) { return s.RegionModifier(testAnatomic, brainID, rightID) }, rightID, false},
		{"region modifier of lung", func() (*Node, error) { return s.RegionModifier(testAnatomic, lungID, rightID) }, CodeIdentifier{}, true},
		{"region in terminology namespace", func() (*Node, error) { return s.Region(testTerminology, lungID) }, CodeIdentifier{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.resolve()
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v; want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if n.ID != tt.want {
				t.Errorf("ID = %v; want %v", n.ID, tt.want)
			}
		})
	}
}

func TestEnumeration(t *testing.T) {
	s := newTestStore(t)

	cats, err := s.Categories(testTerminology)
	if err != nil {
		t.Fatal(err)
	}
	if got := keys(cats); !equalStrings(got, []string{"SRT:T-D0050", "SRT:M-01000"}) {
		t.Errorf("Categories() = %v", got)
	}

	types, _ := s.Types(testTerminology, tissueID)
	if got := keys(types); !equalStrings(got, []string{"SRT:T-D0050", "SRT:T-32000", "SRT:T-45010"}) {
		t.Errorf("Types() = %v", got)
	}

	mods, _ := s.TypeModifiers(testTerminology, tissueID, arteryID)
	if len(mods) != 2 {
		t.Errorf("len(TypeModifiers()) = %d; want 2", len(mods))
	}

	regions, _ := s.Regions(testAnatomic)
	if got := keys(regions); !equalStrings(got, []string{"SRT:T-A0100", "SRT:T-28000"}) {
		t.Errorf("Regions() = %v", got)
	}

	regionMods, _ := s.RegionModifiers(testAnatomic, lungID)
	if len(regionMods) != 0 {
		t.Errorf("RegionModifiers(lung) = %v; want empty", regionMods)
	}

	if _, err := s.Types(testTerminology, lungID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Types(missing category) error = %v; want ErrNotFound", err)
	}

	// Every enumerated id resolves.
	for _, c := range cats {
		types, err := s.Types(testTerminology, c)
		if err != nil {
			t.Fatal(err)
		}
		for _, typ := range types {
			if _, err := s.Type(testTerminology, c, typ); err != nil {
				t.Errorf("Type(%v, %v) error = %v", c, typ, err)
			}
		}
	}
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name  string
		count func() (int, error)
		want  int
	}{
		{"categories", func() (int, error) { return s.NumberOfCategories(testTerminology) }, 2},
		{"types", func() (int, error) { return s.NumberOfTypes(testTerminology, tissueID) }, 3},
		{"type modifiers", func() (int, error) { return s.NumberOfTypeModifiers(testTerminology, tissueID, arteryID) }, 2},
		{"regions", func() (int, error) { return s.NumberOfRegions(testAnatomic) }, 2},
		{"region modifiers", func() (int, error) { return s.NumberOfRegionModifiers(testAnatomic, brainID) }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.count()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("count = %d; want %d", got, tt.want)
			}
		})
	}

	if _, err := s.NumberOfTypes(testTerminology, lungID); !errors.Is(err, ErrNotFound) {
		t.Errorf("NumberOfTypes(missing) error = %v; want ErrNotFound", err)
	}
}

func TestNth(t *testing.T) {
	s := newTestStore(t)

	n, err := s.NthType(testTerminology, tissueID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !n.ID.Equal(arteryID) {
		t.Errorf("NthType(2) = %v; want %v", n.ID, arteryID)
	}

	if n, _ := s.NthCategory(testTerminology, 1); !n.ID.Equal(morphID) {
		t.Errorf("NthCategory(1) = %v; want %v", n.ID, morphID)
	}
	if n, _ := s.NthTypeModifier(testTerminology, tissueID, arteryID, 0); !n.ID.Equal(rightID) {
		t.Errorf("NthTypeModifier(0) = %v; want %v", n.ID, rightID)
	}
	if n, _ := s.NthRegion(testAnatomic, 0); !n.ID.Equal(brainID) {
		t.Errorf("NthRegion(0) = %v; want %v", n.ID, brainID)
	}
	if n, _ := s.NthRegionModifier(testAnatomic, brainID, 1); !n.ID.Equal(leftID) {
		t.Errorf("NthRegionModifier(1) = %v; want %v", n.ID, leftID)
	}

	for _, index := range []int{-1, 3} {
		if _, err := s.NthType(testTerminology, tissueID, index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("NthType(%d) error = %v; want ErrIndexOutOfRange", index, err)
		}
	}
	if _, err := s.NthRegion("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("NthRegion(missing context) error = %v; want ErrNotFound", err)
	}
}

func TestResolveEntry(t *testing.T) {
	s := newTestStore(t)

	t.Run("full entry refreshes meanings", func(t *testing.T) {
		e := Entry{
			TerminologyContextName: testTerminology,
			Category:               NewCodeIdentifier("SRT", "T-D0050", "stale"),
			Type:                   NewCodeIdentifier("SRT", "T-45010", ""),
			TypeModifier:           idPtr(NewCodeIdentifier("SRT", "G-A100", "")),
			AnatomicContextName:    testAnatomic,
			AnatomicRegion:         idPtr(NewCodeIdentifier("SRT", "T-A0100", "")),
			AnatomicRegionModifier: idPtr(NewCodeIdentifier("SRT", "G-A101", "")),
		}
		r, err := s.ResolveEntry(e)
		if err != nil {
			t.Fatalf("ResolveEntry() error = %v", err)
		}
		if r.Entry.Category.CodeMeaning != "Tissue" || r.Entry.Type.CodeMeaning != "Artery" {
			t.Errorf("meanings = %q, %q; want Tissue, Artery", r.Entry.Category.CodeMeaning, r.Entry.Type.CodeMeaning)
		}
		if r.Entry.TypeModifier.CodeMeaning != "Right" || r.Entry.AnatomicRegionModifier.CodeMeaning != "Left" {
			t.Errorf("modifier meanings = %q, %q", r.Entry.TypeModifier.CodeMeaning, r.Entry.AnatomicRegionModifier.CodeMeaning)
		}
		if r.RegionModifier == nil || r.Region == nil || r.TypeModifier == nil {
			t.Error("expected every populated level to carry a node")
		}
		if e.Category.CodeMeaning != "stale" {
			t.Error("ResolveEntry modified its argument")
		}
	})

	t.Run("first missing level fails", func(t *testing.T) {
		e := Entry{
			TerminologyContextName: testTerminology,
			Category:               tissueID,
			Type:                   heartID,
			AnatomicContextName:    testAnatomic,
			AnatomicRegion:         idPtr(NewCodeIdentifier("SRT", "BOGUS", "")),
		}
		if _, err := s.ResolveEntry(e); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v; want ErrNotFound", err)
		}
	})

	t.Run("orphan modifier", func(t *testing.T) {
		e := Entry{
			TerminologyContextName: testTerminology,
			Category:               tissueID,
			Type:                   heartID,
			AnatomicRegionModifier: idPtr(leftID),
		}
		if _, err := s.ResolveEntry(e); !errors.Is(err, ErrOrphanModifier) {
			t.Errorf("error = %v; want ErrOrphanModifier", err)
		}
	})
}
