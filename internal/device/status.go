// Package device defines the contract between kernel-wrapper functions and a
// GPU runtime: raw call outcomes (Status), the check-and-return idiom that
// propagates them (Check), and the runtime surface that produces them.
package device

import "strconv"

// Status is the outcome of one runtime call. Zero is success; every other
// value is an opaque runtime-defined code.
//
// A non-success Status is itself the error value handed up the call chain, so
// the code a caller recovers is the code the runtime produced.
type Status int32

const Success Status = 0

// Codes produced by the simulated runtime. They share the CUDA runtime's
// numbering so codes from either backend read the same.
const (
	ErrInvalidValue           Status = 1
	ErrMemoryAllocation       Status = 2
	ErrInitialization         Status = 3
	ErrInvalidDevicePointer   Status = 17
	ErrInvalidMemcpyDirection Status = 21
	ErrNoDevice               Status = 100
	ErrInvalidDevice          Status = 101
	ErrInvalidKernelImage     Status = 200
	ErrInvalidResourceHandle  Status = 400
	ErrNotReady               Status = 600
	ErrIllegalAddress         Status = 700
	ErrLaunchOutOfResources   Status = 701
	ErrLaunchFailure          Status = 719
	ErrNotSupported           Status = 801
	ErrUnknown                Status = 999
)

var statusNames = map[Status]string{
	Success:                   "success",
	ErrInvalidValue:           "invalid value",
	ErrMemoryAllocation:       "out of memory",
	ErrInitialization:         "initialization error",
	ErrInvalidDevicePointer:   "invalid device pointer",
	ErrInvalidMemcpyDirection: "invalid memcpy direction",
	ErrNoDevice:               "no device",
	ErrInvalidDevice:          "invalid device ordinal",
	ErrInvalidKernelImage:     "invalid kernel image",
	ErrInvalidResourceHandle:  "invalid resource handle",
	ErrNotReady:               "not ready",
	ErrIllegalAddress:         "illegal address",
	ErrLaunchOutOfResources:   "too many resources requested for launch",
	ErrLaunchFailure:          "unspecified launch failure",
	ErrNotSupported:           "operation not supported",
	ErrUnknown:                "unknown error",
}

// OK reports whether s is Success.
func (s Status) OK() bool {
	return s == Success
}

// Code returns the raw integer code.
func (s Status) Code() int32 {
	return int32(s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + strconv.FormatInt(int64(s), 10) + ")"
}

// Error implements error. Only non-success values are ever returned as errors.
func (s Status) Error() string {
	return "device status " + strconv.FormatInt(int64(s), 10) + " (" + s.String() + ")"
}
