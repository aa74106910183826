package session

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// idPattern matches the timestamp-shaped ids this package generates:
// 2006-01-02T15-04-05Z-xxxxxxxx, lexicographically ordered by creation time.
var idPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}Z-[0-9a-f]{8}$`)

// ID is an opaque, lexicographically time-ordered session identifier,
// unique per workspace.
type ID string

// NewID mints a fresh ID from the current time plus a short random suffix
// so that two sessions created in the same second still sort uniquely.
func NewID() ID {
	now := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	suffix := uuid.NewString()[:8]
	return ID(fmt.Sprintf("%s-%s", now, suffix))
}

// ParseID validates a raw string as a session ID.
func ParseID(raw string) (ID, error) {
	if raw == "" {
		return "", &invalidIDError{raw, "empty"}
	}
	if !idPattern.MatchString(raw) {
		return "", &invalidIDError{raw, "invalid format"}
	}
	return ID(raw), nil
}

func (id ID) String() string { return string(id) }

type invalidIDError struct {
	raw    string
	reason string
}

func (e *invalidIDError) Error() string {
	return fmt.Sprintf("invalid session id %q: %s", e.raw, e.reason)
}
