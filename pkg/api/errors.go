package api

import "errors"

var (
	ErrPolicyConflict      = errors.New("extension present in both whitelist and blacklist")
	ErrInvalidDecision     = errors.New("invalid decision")
	ErrInvalidPatternShape = errors.New("invalid date-suffix shape")
	ErrUnknownRuleType     = errors.New("unknown pattern rule type")
)
