package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/kernels"
	"github.com/dthelegend/diss/internal/problemio"
	"github.com/dthelegend/diss/internal/reduce"
	"github.com/dthelegend/diss/internal/solver"
	"github.com/dthelegend/diss/pkg/qubo"
	"github.com/dthelegend/diss/pkg/sat"
)

func writeBadRequest(c *echo.Context, err error) error {
	body := ErrorBody{Type: "invalid_request_error", Message: err.Error()}
	var fe *FieldError
	if errors.As(err, &fe) {
		body.Param = fe.Field
	}
	return writeError(c, http.StatusBadRequest, body)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, ErrorBody{Type: "not_found_error", Message: msg})
}

func writeError(c *echo.Context, status int, body ErrorBody) error {
	return c.JSON(status, map[string]any{
		"error": body,
	})
}

// classify maps a solve or evaluation failure to an HTTP status and body.
// Device failures carry the raw code the runtime produced.
func classify(err error) (int, ErrorBody) {
	body := ErrorBody{Message: err.Error()}
	if code, ok := device.StatusOf(err); ok {
		raw := code.Code()
		body.Type = "device_error"
		body.Code = code.String()
		body.Status = &raw
		return http.StatusBadGateway, body
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		body.Type = "invalid_request_error"
		body.Param = fe.Field
		return http.StatusBadRequest, body
	}

	var overflow *kernels.OverflowError
	switch {
	case errors.As(err, &overflow), errors.Is(err, qubo.ErrOverflow):
		body.Type = "overflow_error"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		body.Type = "canceled"
		return http.StatusServiceUnavailable, body
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, solver.ErrProblemTooLarge),
		errors.Is(err, reduce.ErrUnknownReduction),
		errors.Is(err, problemio.ErrInvalidTerm),
		errors.Is(err, qubo.ErrDimension),
		errors.Is(err, qubo.ErrInvalidSize),
		errors.Is(err, qubo.ErrInvalidBit),
		errors.Is(err, sat.ErrHeader),
		errors.Is(err, sat.ErrClause),
		errors.Is(err, sat.ErrClauseSize):
		body.Type = "invalid_request_error"
		return http.StatusBadRequest, body
	default:
		body.Type = "server_error"
		return http.StatusInternalServerError, body
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fieldErrorf("", "decode request: %w", err)
	}
	return out, nil
}

// problemError names the document term that failed, or the whole problem.
func problemError(err error) error {
	var te *problemio.TermError
	if errors.As(err, &te) {
		return fieldError(fmt.Sprintf("problem.terms[%d]", te.Index), te.Err)
	}
	return fieldError("problem", err)
}

// dimacsAssignment renders an assignment as one signed literal per variable.
func dimacsAssignment(assignment []bool) []int {
	out := make([]int, len(assignment))
	for i, v := range assignment {
		out[i] = i + 1
		if !v {
			out[i] = -out[i]
		}
	}
	return out
}
