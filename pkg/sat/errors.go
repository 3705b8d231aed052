package sat

import "errors"

var (
	ErrHeader     = errors.New("sat: missing or malformed problem header")
	ErrClause     = errors.New("sat: malformed clause")
	ErrClauseSize = errors.New("sat: clause count does not match header")
	ErrDimension  = errors.New("sat: assignment size does not match problem")
)
