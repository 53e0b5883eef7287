// Package mediatypes provides the media kind discriminator and extension
// tables shared across the media library.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles.
//
//	kind, ok := mediatypes.KindForPath("holiday/beach.JPG")
//	// kind == mediatypes.Photo, ok == true
package mediatypes
