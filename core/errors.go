package core

import "errors"

var (
	ErrNotFound      = errors.New("comic is not found")
	ErrBadArguments  = errors.New("arguments are not acceptable")
	ErrNilDependency = errors.New("xkcd service: nil dependency")
)
