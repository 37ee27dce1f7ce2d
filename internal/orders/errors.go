package orders

import "errors"

var (
	// ErrMissingReference indicates no payment reference was supplied.
	ErrMissingReference = errors.New("order: payment reference is required")
	// ErrMissingSignature indicates a webhook arrived without a signature header.
	ErrMissingSignature = errors.New("order: webhook signature is required")
	// ErrSignatureMismatch indicates the webhook body was not signed with our secret.
	ErrSignatureMismatch = errors.New("order: webhook signature mismatch")
	// ErrVerificationFailed indicates the provider did not confirm a successful payment.
	ErrVerificationFailed = errors.New("order: payment verification failed")
	// ErrUserNotFound indicates no local user matches the payer's email.
	ErrUserNotFound = errors.New("order: user not found")
	// ErrEmptyCart indicates the payment metadata carried no line items.
	ErrEmptyCart = errors.New("order: no items in order")
	// ErrInvalidInput signals malformed caller data.
	ErrInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrInvalidStatus indicates an unknown order status value.
	ErrInvalidStatus = errors.New("order: invalid status")
	// ErrInvalidTransition indicates the transition table rejects the change.
	ErrInvalidTransition = errors.New("order: invalid status transition")
	// ErrConflict indicates the order changed concurrently.
	ErrConflict = errors.New("order: conflict")
)
