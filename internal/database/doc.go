// Package database provides the SQLite persistence layer of the movie
// catalog.
//
// It stores:
//   - Movies, including their media files and trailers
//   - Movie sets and their ordered membership
//   - Key/value metadata: the end of the last pass and of the last scan
//     of every datasource
//
// The database runs in WAL mode. The schema is brought up to date on open;
// PRAGMA user_version counts the applied migrations.
// *Database implements catalog.Store.
package database
