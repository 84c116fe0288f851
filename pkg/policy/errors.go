package policy

import "errors"

var (
	ErrLoadPolicy = errors.New("load persisted policy")
	ErrSavePolicy = errors.New("save policy")
)
