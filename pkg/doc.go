// Package dirhash keeps SHA-1 and SHA-256 digests for every file of a directory
// tree in a sidecar Hashes.xml, refreshes them incrementally, and deletes files
// in one tree that duplicate files in others.
//
// # Core API
//
// Hash a whole tree and persist it:
//
//	store, err := dirhash.Recompute("/path/to/dir", dirhash.StoreOptions{})
//	err = store.Save()
//
// Later, rehash only what changed since the last run:
//
//	store, err := dirhash.LoadStore("/path/to/dir")
//	err = store.Update(dirhash.StoreOptions{})
//	err = store.Save()
//
// Delete files under target that duplicate trusted files of the sources:
//
//	report, err := dirhash.Purge(target, []*dirhash.Store{source}, dirhash.PurgeOptions{DryRun: true})
//
// # Trust
//
// A cached hash is trusted while the file's creation and modification times are
// both at or before the store's UpdateTime, which is the instant the last refresh
// began. Purge and FindDuplicates only ever act on trusted hashes.
//
// # Exclusions
//
// Hashes.config in the root lists name patterns of directories and files to
// leave out. Hashes.xml, its lock and temp files, and entries flagged both hidden
// and system are always left out.
//
// # Configuration
//
// Enable debug output:
//
//	dirhash.SetDebugFlags("refresh,purge")
//	dirhash.SetVerboseLevel(2)
package dirhash
