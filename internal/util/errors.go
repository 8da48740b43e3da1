package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPermissionDenied   = errors.New("permission denied")

	// ErrInvalidInput is wrapped with the offending field, e.g. fmt.Errorf("%w: answer index", ErrInvalidInput).
	ErrInvalidInput     = errors.New("invalid input")
	ErrAnswerOutOfRange = fmt.Errorf("%w: answer index out of range", ErrInvalidInput)
	ErrInvalidSeconds   = fmt.Errorf("%w: seconds taken must not be negative", ErrInvalidInput)

	ErrCourseNotFound      = errors.New("course not found")
	ErrTopicNotFound       = errors.New("topic not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAlreadyEnrolled     = errors.New("already enrolled in course")
	ErrEnrolmentNotFound   = errors.New("not enrolled in course")
	ErrBlockedSiteExists   = errors.New("site already blocked")
	ErrBlockedSiteNotFound = errors.New("blocked site not found")
)
