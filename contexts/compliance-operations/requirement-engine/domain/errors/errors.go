package errors

import "errors"

var (
	// Validation failures surface before any write.
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidStatus    = errors.New("unrecognized requirement workflow status")
	ErrUnknownRole      = errors.New("unknown practitioner role")
	ErrUnknownTier      = errors.New("unknown compliance tier")
	ErrTemplateNotFound = errors.New("no requirement template for role and tier")

	// Persistence failures abort the operation.
	ErrUserNotFound       = errors.New("user not found")
	ErrRecordNotFound     = errors.New("compliance record not found")
	ErrAssignmentNotFound = errors.New("tier assignment not found")
	ErrVersionConflict    = errors.New("stale write: version conflict")

	ErrUserDeactivated        = errors.New("user is deactivated")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key already used with different payload")
)
