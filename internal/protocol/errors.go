package protocol

import "errors"

var (
	// ErrDecode marks inbound frames that are not a JSON object with a string
	// "event" field, or whose data does not match the event's shape.
	ErrDecode = errors.New("protocol: malformed frame")
	// ErrUnknownEvent marks well-formed frames naming an event outside the
	// recognized set.
	ErrUnknownEvent = errors.New("protocol: unknown event")
)
