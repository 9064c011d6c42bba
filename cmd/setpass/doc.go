// Command setpass manages the shareplay access password.
//
// Shareplay gates its API behind a single optional access password.
// This utility sets, clears, or inspects it directly in the server's
// database, which is the only way to configure it: there is no setup
// endpoint on the API.
//
// Usage:
//
//	setpass <command>
//
// Commands:
//
//	set     Set or replace the access password. Prompts twice on the
//	        terminal; input is not echoed. Running servers keep their
//	        issued sessions until restart.
//
//	clear   Remove the access password. The API then accepts requests
//	        without a login.
//
//	status  Display whether an access password is configured.
//
// Environment:
//
//	DATA_DIR - Path to the server's data directory (default: /data).
//	           The database lives at DATA_DIR/shareplay.db.
//
// Notes:
//
// The password protects shareplay's own API surface only. It is not
// sent to the remote share service, which stays anonymous.
package main
