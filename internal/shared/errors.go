package shared

import "errors"

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the entity's current status does not permit the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrExternalService indicates a decoupled collaborator failed.
	ErrExternalService = errors.New("external service error")
	// ErrBusy indicates a contended resource; the caller may retry shortly.
	ErrBusy = errors.New("resource busy")
)

// Warnings collects non-fatal problems attached to a successful operation.
type Warnings []string

// Add appends a warning derived from err. Nil errors are ignored.
func (w *Warnings) Add(err error) {
	if err == nil {
		return
	}
	*w = append(*w, err.Error())
}
