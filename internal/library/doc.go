// Package library holds the in-memory index of the media library.
//
// The index is a snapshot of every visual (photo, motion photo or video)
// loaded from the database. Refresh builds a complete new snapshot and
// swaps it in atomically, so readers always see either the old or the new
// library and never a partially built one. Reads never block.
//
// On top of the flat list the package provides the album views: filters
// for videos, motion photos, selfies and single folders, and a per-folder
// summary.
package library
