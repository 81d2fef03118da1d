package plan

import "errors"

var (
	// ErrPlanNotFound indicates the referenced plan slug is not configured.
	ErrPlanNotFound = errors.New("plan not found")
)
