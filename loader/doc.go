// Package loader loads dictionary documents from the file system into a
// terminology store.
//
// Every *.json file of a directory is read and parsed concurrently. Parsed
// dictionaries are inserted in file name order, so the listing order of the
// store does not depend on scheduling. A file that cannot be read or parsed
// is counted and logged and never stops the others from loading.
//
// Example usage:
//
//	store := terminology.NewStore()
//	stats, err := loader.LoadDirectory(ctx, store, "/path/to/dictionaries")
//	if err != nil {
//	    return err // directory missing or unreadable
//	}
//	log.Printf("%d terminologies, %d errors", stats.TerminologiesLoaded, stats.Errors)
//
//	// Reload changed files until ctx is cancelled
//	err = loader.Watch(ctx, store, "/path/to/dictionaries")
package loader
