package model

import "errors"

var ErrImmutableAttempt = errors.New("attempts are append-only")
