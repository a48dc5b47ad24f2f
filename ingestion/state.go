package ingestion

// State is a step of a pipeline run.
//
// A run moves through SELECTING_SOURCE, LOADING, NORMALIZING and ITERATING
// to DONE. FAILED is terminal and reachable from every step.
type State int

const (
	StateIdle State = iota
	StateSelectingSource
	StateLoading
	StateNormalizing
	StateIterating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSelectingSource:
		return "SELECTING_SOURCE"
	case StateLoading:
		return "LOADING"
	case StateNormalizing:
		return "NORMALIZING"
	case StateIterating:
		return "ITERATING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
