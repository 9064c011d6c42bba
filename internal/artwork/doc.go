// Package artwork caches artist images fetched from the remote share.
//
// Matched images are downloaded once, decoded (libvips when available,
// pure-Go imaging otherwise), normalized to bounded JPEGs, and served
// from disk. An image that downloads but will not decode is remembered
// as a fallback: clients get redirected to the remote URL instead of an
// error. Artists without any image get a deterministic generated
// placeholder tile.
//
// Warming runs on a bounded worker pool in the background after a
// playlist loads; playback never waits for artwork.
package artwork
