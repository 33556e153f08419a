// Package database provides SQLite storage for the image catalog.
//
// It handles:
//   - Registered folders and their scan bookkeeping
//   - Image metadata (paths, sizes, hashes, dimensions, thumbnails)
//   - AI-generated and user-supplied descriptions
//   - Full-text search over descriptions via an FTS5 shadow table kept in
//     sync by triggers
//
// The database uses WAL mode for improved concurrent read performance and
// includes automatic schema initialization and column migrations.
package database
