package pattern

import "errors"

var (
	ErrEmptyRule = errors.New("pattern rule value cannot be empty")
)
