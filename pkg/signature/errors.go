package signature

import "errors"

var (
	ErrEmptyMagic     = errors.New("signature magic cannot be empty")
	ErrDuplicateMagic = errors.New("duplicate signature magic")
)
