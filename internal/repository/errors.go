package repository

import "errors"

var (
	// ErrDuplicate is returned when an insert hits an existing unique key.
	ErrDuplicate = errors.New("record already exists")
)
