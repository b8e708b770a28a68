package checkin

import "fmt"

// Code classifies a check-in failure. Local rejections (evaluator verdicts,
// location acquisition) and server rejections map onto the same set so
// callers branch on one taxonomy regardless of where the rejection
// originated.
type Code string

const (
	CodeAlreadyCheckedIn    Code = "ALREADY_CHECKED_IN"
	CodeNotToday            Code = "NOT_TODAY"
	CodeSessionClosed       Code = "SESSION_CLOSED"
	CodeTooEarly            Code = "TOO_EARLY"
	CodeTooLate             Code = "TOO_LATE"
	CodeOutOfRange          Code = "OUT_OF_RANGE"
	CodeLocationUnavailable Code = "LOCATION_UNAVAILABLE"
	CodeAttemptInProgress   Code = "ATTEMPT_IN_PROGRESS"
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNetwork             Code = "NETWORK_ERROR"
	CodeServer              Code = "SERVER_ERROR"
	CodeUnknown             Code = "UNKNOWN_ERROR"
)

// CheckInError is the typed failure result of a check-in or manual mark.
// Expected outcomes (duplicate, out of range, closed, expired) travel through
// this type as ordinary values; it is never panicked.
type CheckInError struct {
	Code           Code
	Message        string
	DistanceMeters *float64 // Set for OUT_OF_RANGE
	Err            error    // Underlying transport or platform error, if any
}

func (e *CheckInError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("check-in failed: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("check-in failed: %s", e.Code)
}

func (e *CheckInError) Unwrap() error { return e.Err }

// AsCheckInError extracts a *CheckInError from err, wrapping anything else
// as CodeUnknown so the caller's error surface stays closed.
func AsCheckInError(err error) *CheckInError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CheckInError); ok {
		return ce
	}
	return &CheckInError{Code: CodeUnknown, Message: err.Error(), Err: err}
}
