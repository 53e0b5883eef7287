// Package media renders and inspects library files.
//
// It provides:
//   - Thumbnail generation for photos (libvips when available, falling back
//     to a pure Go decoder) and videos (a frame grabbed with FFmpeg)
//   - Cheap image dimension reads without a full decode
//   - Extraction of the MP4 clip embedded in motion photos
//   - Photo metadata inferred from the file (capture time, selfie flag)
package media
