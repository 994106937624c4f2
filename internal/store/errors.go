package store

import "errors"

// NotFoundError reports that no record exists for the requested id.
type NotFoundError struct {
	Kind string // "event" | "network" | "episode" | "item" | "bond"
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found: " + e.ID
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
