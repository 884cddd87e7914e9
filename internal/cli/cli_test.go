package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/terminologies"
	"github.com/gofhir/terminologies/dictionaries"
	"github.com/gofhir/terminologies/terminology"
)

// run executes the root command with logging disabled.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "none"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "args: %v", args)
	return out
}

const kidneyLeft = "Segmentation category and type - 3D Slicer General Anatomy list" +
	"~SCT^123037004^Anatomical Structure~SCT^64033007^Kidney~SCT^7771000^Left" +
	"~Anatomic codes - DICOM master list~SCT^64033007^Kidney~^^"

const tissueArtery = "Segmentation category and type - 3D Slicer General Anatomy list" +
	"~SCT^85756007^Tissue~SCT^51114001^Artery~^^~~^^~^^"

// --- helpers ---

func TestParseCode(t *testing.T) {
	cases := []struct {
		input   string
		want    terminology.CodeIdentifier
		wantErr bool
	}{
		{"SCT:85756007", terminology.NewCodeIdentifier("SCT", "85756007", ""), false},
		{"SRT:T-D0050", terminology.NewCodeIdentifier("SRT", "T-D0050", ""), false},
		{"SCT", terminology.CodeIdentifier{}, true},
		{":123", terminology.CodeIdentifier{}, true},
		{"SCT:", terminology.CodeIdentifier{}, true},
	}
	for _, c := range cases {
		got, err := parseCode(c.input)
		if c.wantErr {
			assert.Error(t, err, "parseCode(%q)", c.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	id, err := parseOptionalCode("")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestCommandsRegistered(t *testing.T) {
	root := NewRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
		assert.NotEmpty(t, c.Short, "command %q should have a short description", c.Name())
	}
	for _, want := range []string{
		"version", "list", "categories", "types", "modifiers", "regions", "region-modifiers",
		"label", "contexts", "serialize", "deserialize", "resolve", "info", "equal",
		"export-fhir", "filter", "merge-descriptor", "watch", "stats",
	} {
		assert.True(t, names[want], "command %q should be registered", want)
	}

	for _, flag := range []string{"config", "user-contexts", "no-defaults", "terminology", "anatomic", "output", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

// --- commands ---

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	assert.Equal(t, "terminologies "+terminologies.Version+"\n", out)
}

func TestList(t *testing.T) {
	out := mustRun(t, "list")
	assert.Contains(t, out, dictionaries.GeneralAnatomyName)
	assert.Contains(t, out, dictionaries.AnatomicMasterName)
	assert.Contains(t, out, "(2 rows)")

	out = mustRun(t, "list", "--no-defaults")
	assert.Contains(t, out, "(0 rows)")
}

func TestList_Embedded(t *testing.T) {
	out := mustRun(t, "list", "--embedded", "--no-defaults")
	assert.Contains(t, out, dictionaries.GeneralAnatomy)
	assert.Contains(t, out, dictionaries.AnatomicMaster)
	assert.Contains(t, out, "(2 rows)")

	out = mustRun(t, "list", "--embedded", "-o", "json")
	var got []embeddedFile
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []embeddedFile{
		{Namespace: "terminology", File: dictionaries.GeneralAnatomy},
		{Namespace: "anatomic", File: dictionaries.AnatomicMaster},
	}, got)
}

func TestList_UserContexts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.json"), []byte(`{
		"AnatomicContextName": "Mine",
		"AnatomicCodes": {"AnatomicRegion": [{"CodingSchemeDesignator": "SCT", "CodeValue": "1", "CodeMeaning": "One"}]}}`), 0o644))

	out := mustRun(t, "list", "--user-contexts", dir, "-o", "json")
	var got []contextSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, contextSummary{Kind: "anatomic context", Name: "Mine", Count: 1}, got[2])
}

func TestCategories(t *testing.T) {
	out := mustRun(t, "categories", "tiss")
	assert.Contains(t, out, "85756007")
	assert.Contains(t, out, "(1 rows)")

	out = mustRun(t, "categories", "-o", "json")
	var ids []terminology.CodeIdentifier
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.Len(t, ids, 4)
	assert.Equal(t, "Tissue", ids[0].CodeMeaning)

	_, err := run(t, "categories", "-t", "No such terminology")
	assert.ErrorIs(t, err, terminology.ErrNotFound)
}

func TestTypes(t *testing.T) {
	out := mustRun(t, "types", "SCT:85756007", "ART", "-o", "json")
	var got []typeSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Artery", got[0].CodeMeaning)
	assert.Equal(t, "artery", got[0].SlicerLabel)
	assert.Equal(t, 3, got[0].Modifiers)

	_, err := run(t, "types", "85756007")
	assert.Error(t, err)
}

func TestModifiers(t *testing.T) {
	out := mustRun(t, "modifiers", "SCT:85756007", "SCT:51114001")
	assert.Contains(t, out, "Right")
	assert.Contains(t, out, "Bilateral")
	assert.Contains(t, out, "(3 rows)")

	out = mustRun(t, "modifiers", "SCT:85756007", "SCT:51114001", "lef")
	assert.Contains(t, out, "(1 rows)")
}

func TestRegions(t *testing.T) {
	out := mustRun(t, "regions", "chest")
	assert.Contains(t, out, "Thorax")

	out = mustRun(t, "region-modifiers", "SCT:64033007", "-o", "json")
	var ids []terminology.CodeIdentifier
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.Len(t, ids, 3)

	out = mustRun(t, "region-modifiers", "SCT:12738006")
	assert.Contains(t, out, "(0 rows)")
}

func TestLabel(t *testing.T) {
	out := mustRun(t, "label", "kidney")
	e, err := terminology.DeserializeEntry(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "64033007", e.Type.CodeValue)
	assert.Nil(t, e.TypeModifier)

	_, err = run(t, "label", "no such label")
	assert.ErrorIs(t, err, terminology.ErrNotFound)
}

func TestContexts(t *testing.T) {
	out := mustRun(t, "contexts", "--region", "SCT:64033007", "--region-modifier", "SCT:7771000")
	assert.Contains(t, out, dictionaries.AnatomicMasterName)

	out = mustRun(t, "contexts", "--category", "SCT:85756007", "--type", "SCT:51114001", "-o", "json")
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{dictionaries.GeneralAnatomyName}, names)

	out = mustRun(t, "contexts", "--category", "SCT:85756007", "--type", "SCT:51114001",
		"--preferred-terminologies", "Other", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Empty(t, names)

	_, err := run(t, "contexts")
	assert.Error(t, err)
}

func TestSerialize(t *testing.T) {
	out := mustRun(t, "serialize", "SCT:123037004", "SCT:64033007",
		"--modifier", "SCT:7771000", "--region", "SCT:64033007")
	assert.Equal(t, kidneyLeft+"\n", out)

	out = mustRun(t, "serialize", "SCT:1", "SCT:2", "--no-resolve")
	assert.Equal(t, dictionaries.GeneralAnatomyName+"~SCT^1^~SCT^2^~^^~~^^~^^\n", out)

	_, err := run(t, "serialize", "SCT:123037004", "SCT:999")
	assert.ErrorIs(t, err, terminology.ErrNotFound)

	_, err = run(t, "serialize", "SCT:1", "SCT:2", "--region-modifier", "SCT:3", "--no-resolve")
	assert.ErrorIs(t, err, terminology.ErrOrphanModifier)
}

func TestDeserialize(t *testing.T) {
	out := mustRun(t, "deserialize", kidneyLeft, "-o", "json")
	var f terminology.EntryFields
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, "7771000", f.ModifierValue)
	assert.Equal(t, dictionaries.AnatomicMasterName, f.AnatomicContextName)

	out = mustRun(t, "deserialize", kidneyLeft)
	assert.Contains(t, out, "Region modifier")

	_, err := run(t, "deserialize", "a~b~c~d~e~f~g~h")
	assert.ErrorIs(t, err, terminology.ErrMalformedEntryString)
}

func TestResolve(t *testing.T) {
	stale := strings.Replace(tissueArtery, "^Artery", "^Old name", 1)
	out := mustRun(t, "resolve", stale, "-o", "json")
	var f terminology.EntryFields
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, "Artery", f.TypeMeaning)

	out = mustRun(t, "resolve", kidneyLeft)
	assert.Contains(t, out, "Kidney (SCT:64033007)")
	assert.Contains(t, out, "show anatomy: false")
}

func TestInfo(t *testing.T) {
	out := mustRun(t, "info", kidneyLeft)
	assert.Contains(t, out, "Kidney")
	assert.Contains(t, out, "Left")
}

func TestEqual(t *testing.T) {
	renamed := strings.Replace(tissueArtery, "^Artery", "^Arteria", 1)
	assert.Equal(t, "true\n", mustRun(t, "equal", tissueArtery, renamed))
	assert.Equal(t, "false\n", mustRun(t, "equal", tissueArtery, kidneyLeft))
}

func TestExportFHIR(t *testing.T) {
	out := mustRun(t, "export-fhir", kidneyLeft)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "BodyStructure", doc["resourceType"])
	assert.Contains(t, out, "http://snomed.info/sct")
	assert.Contains(t, doc, "location")
	assert.Contains(t, doc, "locationQualifier")
}

func TestFilter(t *testing.T) {
	out := mustRun(t, "filter", "location.exists()", tissueArtery, kidneyLeft)
	assert.Equal(t, kidneyLeft+"\n", out)

	out = mustRun(t, "filter", "morphology.coding.where(code = '51114001').exists()", tissueArtery, kidneyLeft)
	assert.Equal(t, tissueArtery+"\n", out)

	_, err := run(t, "filter", "location.((", tissueArtery)
	assert.Error(t, err)
}

func TestMergeDescriptor(t *testing.T) {
	p := filepath.Join(t.TempDir(), "seg.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"segmentAttributes": [[{
		"SegmentedPropertyCategoryCodeSequence": {"CodingSchemeDesignator": "SCT", "CodeValue": "85756007", "CodeMeaning": "Tissue"},
		"SegmentedPropertyTypeCodeSequence": {"CodingSchemeDesignator": "SCT", "CodeValue": "51114001", "CodeMeaning": "Artery"},
		"AnatomicRegionSequence": {"CodingSchemeDesignator": "SCT", "CodeValue": "64033007", "CodeMeaning": "Kidney"}
	}]]}`), 0o644))

	out := mustRun(t, "merge-descriptor", "Scene", p)
	assert.Contains(t, out, "Tissue")
	assert.Contains(t, out, "(1 rows)")

	out = mustRun(t, "merge-descriptor", "Scene", p, "--anatomic")
	assert.Contains(t, out, "Kidney")

	_, err := run(t, "merge-descriptor", "Scene", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	mustRun(t, "stats")

	out := mustRun(t, "stats", "-o", "json")
	var values map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.EqualValues(t, 1, values["terminology_loads"])
	assert.EqualValues(t, 1, values["anatomic_loads"])
	assert.EqualValues(t, 2, values["generation"])
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output")
}
