package scheduler

import "fmt"

// Confidence is the learner's 1-5 self-assessment of a recall attempt.
// It serializes as a plain JSON number; clients submit the raw value.
type Confidence int

const (
	Forgot Confidence = iota + 1 // Could not recall at all.
	Unsure                       // Recognized the answer but could not produce it.
	Pass                         // Recalled with real effort.
	Good                         // Recalled with minor hesitation.
	Easy                         // Recalled instantly.
)

var confidenceNames = [...]string{
	Forgot: "Forgot",
	Unsure: "Unsure",
	Pass:   "Pass",
	Good:   "Good",
	Easy:   "Easy",
}

// IsValid reports whether c is a valid rating (Forgot through Easy).
func (c Confidence) IsValid() bool {
	return c >= Forgot && c <= Easy
}

// IsLapse reports whether c regresses the card to the learning ladder.
func (c Confidence) IsLapse() bool {
	return c == Forgot || c == Unsure
}

// String returns the name of the rating ("Forgot", "Unsure", ...).
// For invalid values it returns "Confidence(n)".
func (c Confidence) String() string {
	if c.IsValid() {
		return confidenceNames[c]
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}
