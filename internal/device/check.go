package device

import "errors"

// Check turns the outcome of a single runtime call into an error. It is meant
// to wrap the call expression directly, followed by an immediate return:
//
//	if err := device.Check(rt.MemcpyHtoD(dst, src)); err != nil {
//		return err
//	}
//
// The call is evaluated exactly once, as the argument. On success Check
// returns nil; otherwise it returns the Status itself, unchanged. Check never
// logs, retries or translates.
func Check(s Status) error {
	if s == Success {
		return nil
	}
	return s
}

// StatusOf recovers the Status carried by err, looking through wrapping. A nil
// error is Success. The second result is false when err carries no Status.
func StatusOf(err error) (Status, bool) {
	if err == nil {
		return Success, true
	}
	var s Status
	if errors.As(err, &s) {
		return s, true
	}
	return Success, false
}

// IsStatus reports whether err carries exactly the given code.
func IsStatus(err error, want Status) bool {
	s, ok := StatusOf(err)
	return ok && err != nil && s == want
}
