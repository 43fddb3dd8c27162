package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomNotFound is returned when a referenced room id is unknown.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRecordingNotFound is returned when a referenced recording id is unknown.
	ErrRecordingNotFound = errors.New("recording not found")

	// ErrAlreadyRecording is returned when starting a recording on a room
	// that already has an active one.
	ErrAlreadyRecording = errors.New("recording already started")

	// ErrNotRecording is returned when stopping or querying a room that has
	// no active recording.
	ErrNotRecording = errors.New("no active recording")
)

var (
	errMissingResourceID = errors.New("provider response missing resourceId")
	errMissingSID        = errors.New("provider response missing sid")
)

// UpstreamError reports a failed call to one of the external gateways:
// a transport fault, a timeout, a required field missing from a provider
// response, or a nonzero provider error code.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
