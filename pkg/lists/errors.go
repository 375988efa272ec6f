package lists

import "fmt"

// NotFoundError reports a failed lookup by key: an unknown list
// identifier, row id, field name, or user id. It is distinguishable from
// server-side update failures so callers know a retry cannot succeed.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("lists: no %s with key %q", e.Kind, e.Key)
}

// UpdateFailedError reports one failed command inside a save batch. The
// sibling commands in the same batch are unaffected; the server applies
// and reports each command independently.
type UpdateFailedError struct {
	Row     *Row
	Command string
	Code    string
	Text    string
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("lists: update (%s) to row %d (%q) failed: %s, %s",
		e.Command, e.Row.ID(), e.Row.Name(), e.Code, e.Text)
}
