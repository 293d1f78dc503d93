package prompting

import "fmt"

// NotFoundError reports an author without a style profile.
type NotFoundError struct {
	AuthorID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("style profile for author %q not found", e.AuthorID)
}
