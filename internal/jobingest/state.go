package jobingest

import (
	"go.uber.org/zap"
)

// State is the phase a scrape cycle is in.
type State string

const (
	StateIdle         State = "IDLE"
	StateFetchingPage State = "FETCHING_PAGE"
	StateParsing      State = "PARSING"
	StateEmbedding    State = "EMBEDDING"
	StateStoring      State = "STORING"
	StateFailedPage   State = "FAILED_PAGE"
)

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateIdle:         {StateFetchingPage},
	StateFetchingPage: {StateParsing, StateFailedPage, StateIdle},
	StateParsing:      {StateEmbedding, StateFetchingPage, StateIdle},
	StateEmbedding:    {StateStoring, StateIdle},
	StateStoring:      {StateFetchingPage, StateIdle},
	StateFailedPage:   {StateFetchingPage, StateIdle},
}

// CanTransition reports whether a cycle may move from one state to another.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// stateMachine tracks one cycle's state and logs every transition.
type stateMachine struct {
	current State
	history []State
	logger  *zap.Logger
}

func newStateMachine(logger *zap.Logger) *stateMachine {
	return &stateMachine{current: StateIdle, history: []State{StateIdle}, logger: logger}
}

func (m *stateMachine) to(next State, fields ...zap.Field) {
	if !CanTransition(m.current, next) {
		m.logger.Warn("unexpected scrape state transition",
			zap.String("from", string(m.current)), zap.String("to", string(next)))
	}
	m.logger.Debug("scrape state",
		append([]zap.Field{zap.String("from", string(m.current)), zap.String("to", string(next))}, fields...)...)
	m.current = next
	m.history = append(m.history, next)
}
