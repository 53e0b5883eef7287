// Package handlers provides the HTTP API of the media library.
//
// It includes handlers for:
//   - Health and readiness checks
//   - Album views of the current library snapshot and the folder list
//   - Thumbnails
//   - Background task status and control (face detection, transcoding,
//     rescans, stop)
//   - Runtime settings
//
// Read endpoints serve the lock-free library snapshot; they never touch
// the database. Task endpoints only enqueue work and return 202 Accepted.
package handlers
