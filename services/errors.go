// Package services holds the data-access operations behind the route handlers.
package services

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrEmailTaken      = errors.New("an account with this email already exists")
	ErrWrongPassword   = errors.New("password incorrect")
	ErrTitleTaken      = errors.New("a post with this title already exists")
	ErrPostHasComments = errors.New("post still has comments")
	// ErrEmptyContent means nothing was left of a body or comment after sanitizing.
	ErrEmptyContent = errors.New("content is empty after sanitizing")
)
