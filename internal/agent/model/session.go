package model

import "time"

// DialogState is where the session sits in the per-order state machine.
type DialogState string

const (
	// StateGreeting is the initial state: waiting for a greeting or purchase
	// intent before order capture begins.
	StateGreeting DialogState = "greeting"
	// StateCollecting means order capture is underway.
	StateCollecting DialogState = "collecting"
)

// Strategy selects how a session advances toward a complete slot set.
type Strategy string

const (
	// StrategyDeterministic asks for one field at a time in schema order.
	StrategyDeterministic Strategy = "deterministic"
	// StrategyExtractor passes every message to the language-model extractor
	// and merges its updates additively.
	StrategyExtractor Strategy = "extractor"
)

// ParseStrategy normalises a configured strategy name, falling back to the
// deterministic flow for unknown values.
func ParseStrategy(v string) Strategy {
	if Strategy(v) == StrategyExtractor {
		return StrategyExtractor
	}
	return StrategyDeterministic
}

// Session is the per-customer conversation state. It is owned exclusively by
// the session store; no other component retains a reference across turns.
type Session struct {
	State     DialogState
	Strategy  Strategy
	Order     PartialOrder
	History   []string
	Pending   string // field currently being asked for (deterministic flow)
	UpdatedAt time.Time
}

// NewSession returns an empty session in the greeting state.
func NewSession(strategy Strategy) *Session {
	return &Session{
		State:    StateGreeting,
		Strategy: strategy,
		Order:    PartialOrder{},
	}
}

// Reset clears the session back to an empty greeting state, keeping the
// configured strategy.
func (s *Session) Reset() {
	s.State = StateGreeting
	s.Order = PartialOrder{}
	s.History = nil
	s.Pending = ""
}

// Record appends a raw customer message to the history, keeping only the most
// recent max entries to bound extractor prompt size.
func (s *Session) Record(message string, max int) {
	s.History = append(s.History, message)
	if max > 0 && len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// Touch stamps the session with the time of the current turn.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}
