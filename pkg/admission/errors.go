package admission

import "errors"

var (
	ErrWalkTree   = errors.New("walk directory tree")
	ErrReadSample = errors.New("read head sample")
)
