// Package mediatypes provides shared type definitions and utilities for
// classifying media files across shareplay.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains primitive types,
// constants, and pure utility functions with no external dependencies beyond
// the standard library.
//
// # File Types
//
// The package defines a FileType enum for categorizing files:
//
//	mediatypes.FileTypeAudio // Supported audio formats (mp3, flac, wav, etc.)
//	mediatypes.FileTypeImage // Supported image formats (jpg, png, webp, etc.)
//	mediatypes.FileTypeOther // Unrecognized or unsupported files
//
// # Extension Detection
//
// Classification takes a file name and performs a case-insensitive suffix
// match against the extension allow-lists:
//
//	switch mediatypes.GetFileType(name) {
//	case mediatypes.FileTypeAudio:
//	    // Playable track
//	case mediatypes.FileTypeImage:
//	    // Artist image candidate
//	}
//
// # MIME Types
//
// Use GetMimeType to get the appropriate MIME type for HTTP responses:
//
//	mimeType := mediatypes.GetMimeType(name) // e.g., "audio/mpeg"
//
// The extension maps (AudioExtensions, ImageExtensions) can be used directly
// for format validation or iteration.
package mediatypes
