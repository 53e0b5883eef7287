// Package database provides SQLite persistence for the media library.
//
// It stores:
//   - Pictures and videos discovered by the scan jobs, with the metadata,
//     thumbnail, motion-photo and transcode state the other jobs fill in
//   - Detected faces and the people they were recognized as
//   - A small key/value metadata table (last scan times)
//
// Re-scanning a file whose modification time changed resets its derived
// state so the downstream jobs pick it up again.
//
// The database uses WAL mode with a busy timeout so job goroutines can write
// while the library index reads.
package database
