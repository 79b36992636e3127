package action

import (
	"errors"
	"fmt"
)

// ErrContent is the sentinel wrapped by every content-authoring error.
var ErrContent = errors.New("content error")

// ContentError reports a move-list authoring mistake: a missing action, an
// undefined resource, or a script index past its end. At load time it is
// returned; at run time it is panicked, since continuing would desynchronize
// rollback replays.
type ContentError struct {
	Op     string
	Detail string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrContent, e.Op, e.Detail)
}

// Unwrap lets errors.Is match ErrContent.
func (e *ContentError) Unwrap() error { return ErrContent }

func contentErrorf(op, format string, args ...any) *ContentError {
	return &ContentError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
