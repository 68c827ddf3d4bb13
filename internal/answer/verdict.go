package answer

import "fmt"

// Verdict is the outcome of grading an attempt.
type Verdict int

const (
	// Unknown means the attempt has not been checked since it last changed.
	Unknown Verdict = iota
	Correct
	Incorrect
)

// String returns the lowercase name of v.
func (v Verdict) String() string {
	switch v {
	case Unknown:
		return "unknown"
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// MarshalText implements [encoding.TextMarshaler] so verdicts render by name
// in JSON payloads and log attributes.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
