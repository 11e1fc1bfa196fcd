package reports

import "errors"

var (
	// ErrNotFound is returned when no report matches the given id.
	ErrNotFound = errors.New("report not found")

	// ErrValidation is returned when a request is structurally invalid.
	ErrValidation = errors.New("validation failed")

	// ErrNotOwner is returned when a caller attempts an owner-only
	// operation on a report they do not own.
	ErrNotOwner = errors.New("caller is not the report owner")

	// ErrAccessDenied is returned when the ledger denies a download.
	ErrAccessDenied = errors.New("access denied")
)
