// Package sourcecache materializes local library files into stable,
// token-addressed copies for streaming.
//
// Browsers re-request audio freely (seeks, reconnects, replays), so a
// track is copied into the cache directory once and every subsequent
// request streams from that copy. Entries are identified by file name,
// size, and modification time and are reference counted: sessions
// acquire a source when a track first streams and release it on close,
// and the copy is deleted when the last reference drops.
package sourcecache
