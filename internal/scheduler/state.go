package scheduler

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// State represents the learning stage of a card for one learner.
type State int

const (
	New      State = iota + 1 // Never reviewed; due immediately.
	Learning                  // Working through the learning ladder.
	Review                    // Graduated to long-term review.
)

var (
	stateNames  = [...]string{New: "NEW", Learning: "LEARNING", Review: "REVIEW"}
	stateByName = map[string]State{
		"NEW":      New,
		"LEARNING": Learning,
		"REVIEW":   Review,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = State(0)
	_ json.Marshaler           = State(0)
	_ json.Unmarshaler         = (*State)(nil)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is one of New, Learning or Review.
func (s State) IsValid() bool {
	return s >= New && s <= Review
}

// String returns the name of the state ("NEW", "LEARNING", "REVIEW").
// For invalid values it returns "State(n)".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("scheduler: invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("scheduler: invalid state: %q", text)
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. State serializes as a JSON string.
func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("scheduler: invalid state: %s", data)
	}
	return s.UnmarshalText([]byte(str))
}
