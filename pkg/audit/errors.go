package audit

import "errors"

var (
	ErrOpenTrail    = errors.New("open audit trail")
	ErrEncodeRecord = errors.New("encode audit record")
	ErrDecodeRecord = errors.New("decode audit record")
	ErrWriteRecord  = errors.New("write audit record")
	ErrReadRecord   = errors.New("read audit record")
	ErrCorruptTrail = errors.New("corrupt audit trail")
)
