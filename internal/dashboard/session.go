package dashboard

import (
	"sync"

	"github.com/alexivanou/weather-dashboard/internal/model"
)

// State is the controller's position in the selection flow.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateDisambiguating
	StateSelected
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateDisambiguating:
		return "disambiguating"
	case StateSelected:
		return "selected"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Session is the single logical dashboard session. All fields are
// guarded by mu; generation increases on every new request so that
// late responses can be recognized and dropped.
type Session struct {
	mu         sync.Mutex
	state      State
	deviceID   string
	generation uint64
	candidates []model.Location
	selected   *model.Location
	view       *View
	lastError  string
}

func newSession(deviceID string) *Session {
	return &Session{deviceID: deviceID, state: StateIdle}
}

// begin starts a new request and returns its generation. Callers hold mu.
func (s *Session) begin(state State) uint64 {
	s.generation++
	s.state = state
	return s.generation
}

// current reports whether gen is still the latest request. Callers hold mu.
func (s *Session) current(gen uint64) bool {
	return s.generation == gen
}

func (s *Session) fail(msg string) {
	s.state = StateIdle
	s.lastError = msg
}
