// Package share is the HTTP client for the remote file share service.
//
// The service has no API. Folder contents come from scraping its public
// listing pages, and file bytes come from direct byte URLs. Because the
// service serves reduced markup to unrecognized clients, every request
// carries a browser-realistic identity (User-Agent, Accept,
// Accept-Language).
//
// # Operations
//
//   - FetchListing: GET a folder page's HTML, with retries and a short TTL
//     cache keyed by folder id.
//   - FetchImage: download an image under the short image timeout; callers
//     treat failures as best-effort.
//   - Stream: open a (range-capable) byte stream for a file; used by the
//     local streaming proxy.
//
// # Failure model
//
// Non-2xx responses are hard failures surfaced as *Error with the HTTP
// status detail. Transport errors and throttling or server-side statuses
// (429, 5xx) retry with exponential backoff up to Config.MaxRetries;
// client errors do not retry. ParseFolderRef rejects references that are
// neither a share URL with a /folders/<id> segment nor a plausible raw id.
package share
