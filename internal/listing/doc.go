// Package listing turns remote share listing HTML into structured entries.
//
// The share service renders folder contents as an HTML page rather than an
// API response, so entry extraction is pattern matching over markup. Each
// row carries a per-item id attribute; the primary pass anchors on those ids
// and tries an ordered list of name sources (emphasis-tag text, data-title,
// aria-label, title) for each row. A looser whole-document id/title scan
// runs only when the primary pass finds nothing at all.
//
// Entries are classified as audio, image, folder, or other. Folders are
// recognized by icon markers in the row markup; files are classified by
// extension through internal/mediatypes.
//
// Parsing never fails. A page with no recognizable rows produces an empty
// slice, which the resolver reports as "no files found" rather than an
// error. Duplicate ids keep their first occurrence, including across the
// primary and fallback passes.
//
// The RowParser sits behind the Parser interface so the scraping strategy
// can be replaced (for example by a real HTML parser) without touching the
// resolver.
package listing
