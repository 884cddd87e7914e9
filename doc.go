// Package terminologies resolves, searches, compares and serializes coded
// terminology entries.
//
// A terminology entry selects a category, a type and an optional type modifier
// from a terminology context, plus an optional anatomic region and region
// modifier from an anatomic context. Every level is identified by a coding
// scheme designator and a code value, for example ("SCT", "80891009").
//
// Logic is the entry point. It owns a terminology.Store populated with the
// embedded default dictionaries and any dictionaries found in a user
// directory:
//
//	logic, err := terminologies.New(ctx,
//	    terminologies.WithUserContextsPath("~/.terminologies"),
//	)
//	if err != nil {
//	    return err
//	}
//	store := logic.Store()
//	types, err := store.FindTypes(dictionaries.GeneralAnatomyName, tissue, "art")
//
// Reads are lock free: each Store operation works on an immutable snapshot, so
// dictionaries can be reloaded while other goroutines search. Entries hold
// identifiers only and stay valid across reloads.
//
// Entries serialize to a single line. See terminology.SerializeEntry.
package terminologies
