package terminology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofhir/terminologies/pkg/logger"
)

const (
	testTerminology = "Test Anatomy"
	testAnatomic    = "Test Regions"
)

var (
	tissueID = NewCodeIdentifier("SRT", "T-D0050", "Tissue")
	heartID  = NewCodeIdentifier("SRT", "T-32000", "Heart")
	arteryID = NewCodeIdentifier("SRT", "T-45010", "Artery")
	rightID  = NewCodeIdentifier("SRT", "G-A100", "Right")
	leftID   = NewCodeIdentifier("SRT", "G-A101", "Left")
	morphID  = NewCodeIdentifier("SRT", "M-01000", "Morphologically Altered Structure")
	massID   = NewCodeIdentifier("SRT", "M-03000", "Mass")
	brainID  = NewCodeIdentifier("SRT", "T-A0100", "Brain")
	lungID   = NewCodeIdentifier("SRT", "T-28000", "Lung")
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return data
}

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	opts = append([]StoreOption{WithLogger(logger.Disabled())}, opts...)
	s := NewStore(opts...)
	if _, err := s.LoadTerminology(readTestdata(t, "terminology.json")); err != nil {
		t.Fatalf("LoadTerminology() error = %v", err)
	}
	if _, err := s.LoadAnatomicContext(readTestdata(t, "anatomic.json")); err != nil {
		t.Fatalf("LoadAnatomicContext() error = %v", err)
	}
	return s
}

func idPtr(id CodeIdentifier) *CodeIdentifier {
	return &id
}

func keys(ids []CodeIdentifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Key().String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
