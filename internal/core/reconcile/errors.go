package reconcile

import "errors"

var (
	// ErrInvalidHandler is returned by New for a handler not built with NewHandler.
	ErrInvalidHandler = errors.New("reconcile: invalid handler")
	// ErrInvalidAttachment is returned by New for an attachment without a type or constructor.
	ErrInvalidAttachment = errors.New("reconcile: invalid attachment")
)
