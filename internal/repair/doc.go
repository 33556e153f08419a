// Package repair rebuilds a catalog database into a fresh, optimized file.
//
// The procedure never modifies the original database: it backs the file up,
// copies every row into a new database built from the canonical schema,
// rebuilds the full-text index, applies performance pragmas, and verifies
// the result with an integrity check and an update round-trip before
// atomically swapping the new file into place.
package repair
