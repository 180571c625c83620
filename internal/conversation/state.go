package conversation

// TurnState is the request state of the conversation.
type TurnState int

const (
	// Idle accepts new submissions.
	Idle TurnState = iota
	// AwaitingResponse has a message in flight. The typing indicator is shown.
	AwaitingResponse
	// Resetting has a reset request in flight.
	Resetting
)

func (s TurnState) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting-response"
	case Resetting:
		return "resetting"
	default:
		return "unknown"
	}
}
