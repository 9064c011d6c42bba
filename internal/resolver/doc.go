// Package resolver turns a share folder reference into a ready-to-play
// track list.
//
// Resolution fetches the folder listing, derives a display name from the
// page title, locates the optional artist image subfolder and the
// configured tracks subfolder, and builds one track per audio entry with
// its stream URL and any matched artist image. Artist images are
// best-effort: a failed image subfolder fetch degrades to tracks without
// artwork. A configured tracks subfolder is strict: its absence fails
// the whole resolution.
package resolver
