package contract

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrPlanContract    = errors.New("plan violates workflow contract")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
)
