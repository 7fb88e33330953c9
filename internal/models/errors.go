package models

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing caller input. Never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Msg)
	}
	return "validation failed: " + e.Msg
}

// NotFoundError reports an absent referenced entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// AuthorizationError reports an authenticated identity with insufficient rights.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string {
	return e.Msg
}

// ConflictError reports a state machine violation or a uniqueness collision.
// CouponCollision marks the retryable coupon uniqueness case.
type ConflictError struct {
	Msg             string
	CouponCollision bool
}

func (e *ConflictError) Error() string {
	return e.Msg
}

// TransientStoreError wraps a persistence or storage collaborator failure that
// is safe to retry for idempotent operations.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsCouponCollision reports whether err is the retryable coupon uniqueness
// violation, as opposed to any other conflict.
func IsCouponCollision(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.CouponCollision
}

func IsTransientStore(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}
