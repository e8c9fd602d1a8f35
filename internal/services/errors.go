package services

import "errors"

var (
	// ErrOperationInProgress is returned when another lifecycle operation
	// holds the same booking/slot/request.
	ErrOperationInProgress = errors.New("operation already in progress for this entity")

	// ErrForbidden is returned when the caller's address is not allowed to
	// perform the operation.
	ErrForbidden = errors.New("caller not authorized for this operation")
)
