package yard

import "errors"

// ErrTypeMismatch reports a malformed input value.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrConstraintViolation reports a mutation that breaks a stacking or removal
// rule. The yard is left untouched when it is returned.
var ErrConstraintViolation = errors.New("constraint violation")
