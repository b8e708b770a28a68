package eligibility

// ReasonCode explains an eligibility verdict. The first matching reason in
// the decision order wins, so callers can show one precise message.
type ReasonCode string

const (
	ReasonCanAttend           ReasonCode = "CAN_ATTEND"
	ReasonAlreadyCheckedIn    ReasonCode = "ALREADY_CHECKED_IN"
	ReasonNotToday            ReasonCode = "NOT_TODAY"
	ReasonSessionClosed       ReasonCode = "SESSION_CLOSED"
	ReasonTooEarly            ReasonCode = "TOO_EARLY"
	ReasonTooLate             ReasonCode = "TOO_LATE"
	ReasonLocationUnavailable ReasonCode = "LOCATION_UNAVAILABLE"
	ReasonOutOfRange          ReasonCode = "OUT_OF_RANGE"
)

// Verdict is the transient result of one eligibility evaluation. It is
// computed fresh on every attempt and never persisted.
type Verdict struct {
	CanAttend      bool       `json:"can_attend"`
	Reason         ReasonCode `json:"reason"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
}
