// Package terminology implements a hierarchical coded-terminology lookup engine.
//
// A Store holds two independent namespaces of dictionaries:
//   - Terminology contexts: categories, their types, and type modifiers
//   - Anatomic contexts: anatomic regions and region modifiers
//
// Every node is identified by a coding scheme designator and a code value.
// The code meaning is a display label only and never takes part in lookup
// or equality.
//
// Example usage:
//
//	store := terminology.NewStore()
//	name, err := store.LoadTerminology(data)
//	if err != nil {
//	    return err
//	}
//
//	tissue := terminology.NewCodeIdentifier("SCT", "85756007", "Tissue")
//	category, err := store.Category(name, tissue)
//	if errors.Is(err, terminology.ErrNotFound) {
//	    // not in this terminology
//	}
//
//	// Persist a selection on a foreign object and restore it later
//	s := terminology.SerializeEntry(entry)
//	restored, err := terminology.DeserializeEntry(s)
//
// Loads are atomic: a new dictionary is parsed and validated off to the side
// and swapped into the store in a single pointer store, so concurrent readers
// see either the previous state or the complete new one.
package terminology
