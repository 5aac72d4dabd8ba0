package forum

import "errors"

var (
	// ErrThreadNotFound is returned when a thread ID does not exist.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrCommentNotFound is returned when a comment ID does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrNotOwner is returned when a caller mutates content they do not own.
	ErrNotOwner = errors.New("not the owner of this resource")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
)
