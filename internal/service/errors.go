package service

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials indicates that the provided password does not
	// match the stored hash.
	ErrInvalidCredentials = errors.New("incorrect password")
	// ErrUserNotFound indicates no credential matches the login username.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when signing up with a taken username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrPostNotFound indicates no post matches the given slug or id.
	ErrPostNotFound = errors.New("the post doesn't exist")
	// ErrCommentNotFound indicates no comment matches the given id.
	ErrCommentNotFound = errors.New("the comment doesn't exist")
	// ErrSlugTaken is returned when a title normalizes to a slug already
	// owned by another post.
	ErrSlugTaken = errors.New("a post with this title already exists")
)

// ValidationError aggregates input failures so callers can return them
// as a list rather than one message at a time.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
