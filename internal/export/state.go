package export

import "fmt"

// State is a step of the export state machine:
//
//	Idle -> Paginating -> RenderingPage(k) -> Appending(k) -> ... -> Finalizing -> Done
//
// Any non-terminal state may move to Failed.
type State string

const (
	StateIdle          State = "idle"
	StatePaginating    State = "paginating"
	StateRenderingPage State = "rendering_page"
	StateAppending     State = "appending"
	StateFinalizing    State = "finalizing"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition is one observed state change. Page is set for page-scoped states.
type Transition struct {
	State State
	Page  int
}

func (t Transition) String() string {
	if t.Page > 0 {
		return fmt.Sprintf("%s(%d)", t.State, t.Page)
	}
	return string(t.State)
}

// validNext lists the allowed successors of every state.
var validNext = map[State][]State{
	StateIdle:          {StatePaginating, StateFailed},
	StatePaginating:    {StateRenderingPage, StateFailed},
	StateRenderingPage: {StateAppending, StateFailed},
	StateAppending:     {StateRenderingPage, StateFinalizing, StateFailed},
	StateFinalizing:    {StateDone, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range validNext[from] {
		if s == to {
			return true
		}
	}
	return false
}
