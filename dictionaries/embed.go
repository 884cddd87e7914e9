// Package dictionaries provides the embedded default dictionaries.
//
// The embedded files are:
//   - terminology/general-anatomy.json: general anatomy categories and types
//   - anatomic/anatomic-master.json: anatomic regions with laterality modifiers
//
// Usage:
//
//	data, err := dictionaries.ReadFile(dictionaries.Terminology, dictionaries.GeneralAnatomy)
//	if err != nil {
//	    return err
//	}
//	name, err := store.LoadTerminology(data)
package dictionaries

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// Embedded dictionaries for each namespace
//
//go:embed terminology/*.json
var TerminologyFS embed.FS

//go:embed anatomic/*.json
var AnatomicFS embed.FS

// Namespace selects one of the two dictionary namespaces.
type Namespace string

const (
	Terminology Namespace = "terminology"
	Anatomic    Namespace = "anatomic"
)

// Default file names.
const (
	GeneralAnatomy = "general-anatomy.json"
	AnatomicMaster = "anatomic-master.json"
)

// Default context names declared by the embedded files.
const (
	GeneralAnatomyName = "Segmentation category and type - 3D Slicer General Anatomy list"
	AnatomicMasterName = "Anatomic codes - DICOM master list"
)

// GetFS returns the embedded filesystem and directory name for a namespace.
// The returned directory name should be used as a prefix when reading files.
func GetFS(ns Namespace) (embed.FS, string, error) {
	switch ns {
	case Terminology:
		return TerminologyFS, "terminology", nil
	case Anatomic:
		return AnatomicFS, "anatomic", nil
	default:
		return embed.FS{}, "", fmt.Errorf("unknown dictionary namespace: %s", ns)
	}
}

// ListFiles returns the sorted names of the JSON files embedded for a namespace.
func ListFiles(ns Namespace) ([]string, error) {
	fsys, dir, err := GetFS(ns)
	if err != nil {
		return nil, err
	}

	matches, err := fs.Glob(fsys, dir+"/*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = path.Base(m)
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile reads an embedded dictionary.
func ReadFile(ns Namespace, filename string) ([]byte, error) {
	fsys, dir, err := GetFS(ns)
	if err != nil {
		return nil, err
	}

	p := path.Join(dir, filename)
	data, err := fsys.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}
