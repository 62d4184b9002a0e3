package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("event already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrDeliveryDegraded = errors.New("notification delivery degraded")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyJoined    = errors.New("already joined this event")
)

// ValidationError lists the fields that were missing or malformed.
type ValidationError struct {
	Fields  []string
	Reasons map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if reason, ok := e.Reasons[f]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", f, reason))
			continue
		}
		parts = append(parts, f+" is required")
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, field)
	if reason != "" {
		if e.Reasons == nil {
			e.Reasons = make(map[string]string)
		}
		e.Reasons[field] = reason
	}
}

// DeliveryDegradedError reports an event that was recorded while some of its
// notifications could not be written. It is a warning, not a failure.
type DeliveryDegradedError struct {
	EventID uint64
	// Failed holds the recipients left without a notification. It is empty
	// when the recipient set itself could not be read.
	Failed []string
	Cause  error
}

func (e *DeliveryDegradedError) Error() string {
	if len(e.Failed) == 0 {
		return fmt.Sprintf("%v: event %d: recipients unknown: %v", ErrDeliveryDegraded, e.EventID, e.Cause)
	}
	return fmt.Sprintf("%v: event %d: %d recipient(s) not notified: %v",
		ErrDeliveryDegraded, e.EventID, len(e.Failed), e.Cause)
}

func (e *DeliveryDegradedError) Is(target error) bool {
	return target == ErrDeliveryDegraded
}

func (e *DeliveryDegradedError) Unwrap() error {
	return e.Cause
}
