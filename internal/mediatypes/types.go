package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the classification of a listed file.
type FileType string

const (
	// FileTypeAudio represents a playable audio file.
	FileTypeAudio FileType = "audio"
	// FileTypeImage represents an image file.
	FileTypeImage FileType = "image"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// AudioExtensions maps file extensions to whether they are supported audio formats.
// This is the allow-list used to classify remote listing entries and local files.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".m4a":  true,
	".aac":  true,
	".wma":  true,
	".aiff": true,
	".aif":  true,
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Audio
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wma":  "audio/x-ms-wma",
	".aiff": "audio/aiff",
	".aif":  "audio/aiff",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// Ext returns the lowercased extension of a file name, including the
// leading dot. Names without an extension yield "".
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// GetFileType returns the FileType for a given file name.
// Classification is a case-insensitive suffix match against the
// extension allow-lists.
func GetFileType(name string) FileType {
	ext := Ext(name)
	if AudioExtensions[ext] {
		return FileTypeAudio
	}
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file name.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	if mime, ok := MimeTypes[Ext(name)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsAudioFile returns true if the name carries a supported audio extension.
func IsAudioFile(name string) bool {
	return AudioExtensions[Ext(name)]
}

// IsImageFile returns true if the name carries a supported image extension.
func IsImageFile(name string) bool {
	return ImageExtensions[Ext(name)]
}

// StripExt returns the file name with its trailing extension removed.
func StripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
