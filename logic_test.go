package terminologies

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofhir/terminologies/dictionaries"
	"github.com/gofhir/terminologies/loader"
	"github.com/gofhir/terminologies/terminology"
)

var (
	sctTissue  = terminology.NewCodeIdentifier("SCT", "85756007", "")
	sctAnatomy = terminology.NewCodeIdentifier("SCT", "123037004", "")
	sctKidney  = terminology.NewCodeIdentifier("SCT", "64033007", "")
	sctArtery  = terminology.NewCodeIdentifier("SCT", "51114001", "")
	sctLeft    = terminology.NewCodeIdentifier("SCT", "7771000", "")
)

func newTestLogic(t *testing.T, opts ...Option) *Logic {
	t.Helper()
	l, err := New(context.Background(), append(QuietOptions(), opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const userTerminology = `{
  "SegmentationCategoryTypeContextName": "User list",
  "SegmentationCodes": {"Category": [
    {"CodingSchemeDesignator": "SCT", "CodeValue": "85756007", "CodeMeaning": "Tissue",
     "Type": [{"CodingSchemeDesignator": "SCT", "CodeValue": "51114001", "CodeMeaning": "Artery",
               "Modifier": [{"CodingSchemeDesignator": "SCT", "CodeValue": "7771000", "CodeMeaning": "Left"}]}]}
  ]}
}`

func TestNew_Defaults(t *testing.T) {
	l := newTestLogic(t)
	store := l.Store()

	if got := store.TerminologyNames(); len(got) != 1 || got[0] != dictionaries.GeneralAnatomyName {
		t.Errorf("TerminologyNames() = %v; want [%s]", got, dictionaries.GeneralAnatomyName)
	}
	if got := store.AnatomicContextNames(); len(got) != 1 || got[0] != dictionaries.AnatomicMasterName {
		t.Errorf("AnatomicContextNames() = %v; want [%s]", got, dictionaries.AnatomicMasterName)
	}

	n, err := store.TypeModifier(dictionaries.GeneralAnatomyName, sctAnatomy, sctKidney, sctLeft)
	if err != nil {
		t.Fatalf("TypeModifier() error = %v", err)
	}
	if n.ID.CodeMeaning != "Left" {
		t.Errorf("CodeMeaning = %q; want Left", n.ID.CodeMeaning)
	}
	if _, err := store.RegionModifier(dictionaries.AnatomicMasterName, sctKidney, sctLeft); err != nil {
		t.Errorf("RegionModifier() error = %v", err)
	}
}

func TestNew_Empty(t *testing.T) {
	l := newTestLogic(t, EmptyOptions()...)
	if got := l.Store().TerminologyNames(); len(got) != 0 {
		t.Errorf("TerminologyNames() = %v; want empty", got)
	}
	if l.Metrics() != nil {
		t.Error("Metrics() should be nil with QuietOptions")
	}
}

func TestNew_UserContexts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userTerminology)
	writeFile(t, dir, "broken.json", `{"SegmentationCategoryTypeContextName": "x"`)

	l := newTestLogic(t, WithUserContextsPath(dir), WithMetrics(true))

	names := l.Store().TerminologyNames()
	if len(names) != 2 || names[0] != dictionaries.GeneralAnatomyName || names[1] != "User list" {
		t.Errorf("TerminologyNames() = %v; want defaults then user list", names)
	}
	m := l.Metrics()
	if m == nil {
		t.Fatal("Metrics() = nil")
	}
	if m.FileErrors() != 1 {
		t.Errorf("FileErrors() = %d; want 1", m.FileErrors())
	}
	if m.TerminologyLoads() != 2 {
		t.Errorf("TerminologyLoads() = %d; want 2", m.TerminologyLoads())
	}
}

func TestNew_MissingUserDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	l := newTestLogic(t, WithUserContextsPath(missing))
	if got := l.UserContextsPath(); got != missing {
		t.Errorf("UserContextsPath() = %q; want %q", got, missing)
	}

	_, err := l.LoadUserContexts(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadUserContexts() error = %v; want not exist", err)
	}
}

func TestLoadUserContexts_NoPath(t *testing.T) {
	l := newTestLogic(t, EmptyOptions()...)
	if _, err := l.LoadUserContexts(context.Background()); !errors.Is(err, ErrNoUserContextsPath) {
		t.Errorf("LoadUserContexts() error = %v; want ErrNoUserContextsPath", err)
	}
	if err := l.Watch(context.Background(), nil); !errors.Is(err, ErrNoUserContextsPath) {
		t.Errorf("Watch() error = %v; want ErrNoUserContextsPath", err)
	}
}

func TestSetUserContextsPath(t *testing.T) {
	l := newTestLogic(t, EmptyOptions()...)
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userTerminology)

	l.SetUserContextsPath(dir)
	stats, err := l.LoadUserContexts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TerminologiesLoaded != 1 {
		t.Errorf("TerminologiesLoaded = %d; want 1", stats.TerminologiesLoaded)
	}
}

func TestLoadFromFile(t *testing.T) {
	l := newTestLogic(t, EmptyOptions()...)
	dir := t.TempDir()

	termPath := writeFile(t, dir, "user.json", userTerminology)
	name, err := l.LoadTerminologyFromFile(termPath)
	if err != nil || name != "User list" {
		t.Fatalf("LoadTerminologyFromFile() = %q, %v; want User list", name, err)
	}

	anatPath := writeFile(t, dir, "anat.json", `{"AnatomicContextName": "Mine",
		"AnatomicCodes": {"AnatomicRegion": [{"CodingSchemeDesignator": "SCT", "CodeValue": "64033007", "CodeMeaning": "Kidney"}]}}`)
	kind, name, err := l.LoadContextFromFile(anatPath)
	if err != nil || kind != terminology.KindAnatomic || name != "Mine" {
		t.Fatalf("LoadContextFromFile() = %v, %q, %v", kind, name, err)
	}
	if _, err := l.LoadAnatomicContextFromFile(anatPath); err != nil {
		t.Errorf("LoadAnatomicContextFromFile() error = %v", err)
	}

	if _, err := l.LoadTerminologyFromFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadTerminologyFromFile(missing) error = %v; want not exist", err)
	}
	if _, err := l.LoadTerminologyFromFile(anatPath); !errors.Is(err, terminology.ErrMalformedDictionary) {
		t.Errorf("LoadTerminologyFromFile(anatomic) error = %v; want ErrMalformedDictionary", err)
	}
}

func TestLoadFromSegmentDescriptorFile(t *testing.T) {
	l := newTestLogic(t, EmptyOptions()...)
	p := writeFile(t, t.TempDir(), "seg.json", `{"segmentAttributes": [[{
		"SegmentedPropertyCategoryCodeSequence": {"CodingSchemeDesignator": "SCT", "CodeValue": "85756007", "CodeMeaning": "Tissue"},
		"SegmentedPropertyTypeCodeSequence": {"CodingSchemeDesignator": "SCT", "CodeValue": "51114001", "CodeMeaning": "Artery"},
		"AnatomicRegionSequence": {"CodingSchemeDesignator": "SCT", "CodeValue": "64033007", "CodeMeaning": "Kidney"}
	}]]}`)

	if err := l.LoadTerminologyFromSegmentDescriptorFile("From scene", p); err != nil {
		t.Fatal(err)
	}
	if err := l.LoadAnatomicContextFromSegmentDescriptorFile("From scene", p); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Store().Type("From scene", sctTissue, sctArtery); err != nil {
		t.Errorf("Type() error = %v", err)
	}
	if _, err := l.Store().Region("From scene", sctKidney); err != nil {
		t.Errorf("Region() error = %v", err)
	}
}

func TestFindNames_Preferred(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userTerminology)

	l := newTestLogic(t, WithUserContextsPath(dir))
	if got := l.FindTerminologyNames(sctTissue, sctArtery, &sctLeft); len(got) != 2 {
		t.Errorf("FindTerminologyNames() = %v; want both terminologies", got)
	}

	l = newTestLogic(t, WithUserContextsPath(dir), WithPreferredTerminologies("User list"))
	if got := l.FindTerminologyNames(sctTissue, sctArtery, &sctLeft); len(got) != 1 || got[0] != "User list" {
		t.Errorf("FindTerminologyNames() = %v; want [User list]", got)
	}

	l = newTestLogic(t, WithPreferredAnatomicContexts("nope"))
	if got := l.FindAnatomicContextNames(sctKidney, nil); len(got) != 0 {
		t.Errorf("FindAnatomicContextNames() = %v; want empty", got)
	}
}

func TestResolveSerializedAndFilter(t *testing.T) {
	l := newTestLogic(t)
	e := terminology.Entry{
		TerminologyContextName: dictionaries.GeneralAnatomyName,
		Category:               sctAnatomy,
		Type:                   sctKidney,
		AnatomicContextName:    dictionaries.AnatomicMasterName,
		AnatomicRegion:         &sctKidney,
	}

	r, err := l.ResolveSerialized(terminology.SerializeEntry(e))
	if err != nil {
		t.Fatalf("ResolveSerialized() error = %v", err)
	}
	if r.Entry.Type.CodeMeaning != "Kidney" {
		t.Errorf("resolved type meaning = %q; want Kidney", r.Entry.Type.CodeMeaning)
	}

	plain := terminology.Entry{TerminologyContextName: dictionaries.GeneralAnatomyName, Category: sctTissue, Type: sctArtery}
	filtered, err := l.FilterEntries("location.exists()", []terminology.Entry{plain, e})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || !filtered[0].Equal(e) {
		t.Errorf("FilterEntries() = %+v; want only the entry with a region", filtered)
	}
}

func TestWatch_ReloadsUserContexts(t *testing.T) {
	dir := t.TempDir()
	l := newTestLogic(t, WithDefaults(false), WithMetrics(true))
	l.SetUserContextsPath(dir)

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *loader.Stats, 1)
	done := make(chan error, 1)
	go func() {
		done <- l.Watch(ctx, func(s *loader.Stats) {
			select {
			case reloaded <- s:
			default:
			}
		}, loader.WithDebounce(20*time.Millisecond))
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "user.json", userTerminology)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}

	if _, ok := l.Store().Terminology("User list"); !ok {
		t.Error("user terminology not loaded by watcher")
	}
	if l.Metrics().DirectoryLoads() == 0 {
		t.Error("reload not recorded in metrics")
	}
}
