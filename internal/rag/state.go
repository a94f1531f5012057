package rag

// State is a phase of the query flow.
type State int

const (
	StateStart State = iota
	StateValidate
	StateRetrieveAndAnswer
	StateNoData
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateValidate:
		return "validate"
	case StateRetrieveAndAnswer:
		return "retrieve_and_answer"
	case StateNoData:
		return "no_data"
	case StateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event drives a transition between states.
type Event int

const (
	EventQueryReceived Event = iota
	EventRelevant
	EventNotRelevant
	EventAnswered
	EventFailed
)

func (e Event) String() string {
	switch e {
	case EventQueryReceived:
		return "query_received"
	case EventRelevant:
		return "relevant"
	case EventNotRelevant:
		return "not_relevant"
	case EventAnswered:
		return "answered"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition returns the next state for a state/event pair. Unknown
// pairs fall through to StateEnd so the flow always terminates.
func Transition(s State, e Event) State {
	switch {
	case s == StateStart && e == EventQueryReceived:
		return StateValidate
	case s == StateValidate && e == EventRelevant:
		return StateRetrieveAndAnswer
	case s == StateValidate && e == EventNotRelevant:
		return StateNoData
	case s == StateRetrieveAndAnswer && (e == EventAnswered || e == EventFailed):
		return StateEnd
	case s == StateNoData && e == EventAnswered:
		return StateEnd
	default:
		return StateEnd
	}
}
