// Package errs defines the error taxonomy shared by all services.
// Handlers map these to HTTP statuses; everything else wraps them
// with fmt.Errorf("...: %w", ...).
package errs

import "errors"

var (
	// ErrNotFound reports a table/bill/item/payment lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports a malformed or out-of-range payload. Nothing
	// is mutated when a request fails validation.
	ErrValidation = errors.New("validation error")

	// ErrIntegrity reports an update that would break an invariant, such
	// as paidQuantity exceeding quantity or a second active bill for a
	// table. The whole operation is rejected, never a part of it.
	ErrIntegrity = errors.New("integrity violation")

	// ErrUnavailable reports an unreachable downstream dependency
	// (payment authorizer, lock backend). No partial writes happen.
	ErrUnavailable = errors.New("backend unavailable")
)
