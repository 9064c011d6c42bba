package share

import (
	"fmt"
	"regexp"
	"strings"
)

// Folder URL pattern: any share URL with a /folders/<id> path segment.
// The id itself is opaque; we only constrain its character set.
var folderPathPattern = regexp.MustCompile(`/folders/([0-9A-Za-z_-]+)`)

// Raw id pattern for references pasted without the surrounding URL.
var folderIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

// ParseFolderRef extracts the opaque folder id from a user-supplied
// reference. Accepted forms:
//
//   - A full share URL containing a /folders/<id> path segment, with any
//     scheme, host, query, or fragment around it.
//   - The raw id itself.
//
// Anything else returns ErrInvalidFolderRef.
func ParseFolderRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidFolderRef)
	}

	if m := folderPathPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}

	if folderIDPattern.MatchString(ref) {
		return ref, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidFolderRef, ref)
}
