package share

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidFolderRef is returned when a folder reference is neither a share
// URL containing a folder path nor a plausible raw folder id.
var ErrInvalidFolderRef = errors.New("invalid folder reference")

// Error describes a failed request to the remote share service. It carries
// enough detail for the resolver to surface a human-readable failure.
type Error struct {
	Operation  string // "listing" or "image"
	URL        string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("share %s request failed: GET %s: HTTP %d %s",
			e.Operation, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("share %s request failed: GET %s: %v", e.Operation, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is worth retrying: transport
// errors and throttling or server-side statuses. Client errors like 403 or
// 404 are permanent.
func (e *Error) IsRetryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
