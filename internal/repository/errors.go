package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested or referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write would violate a uniqueness or state rule.
	ErrConflict = errors.New("record conflict")

	ErrUsernameTaken = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrAlreadyLiked  = fmt.Errorf("%w: video already liked", ErrConflict)
	ErrNotLiked      = fmt.Errorf("%w: video not liked yet", ErrConflict)

	// ErrSelfShare is returned when a share names the sender as receiver.
	ErrSelfShare = errors.New("cannot share video with yourself")
)
