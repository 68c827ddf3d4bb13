// Package problem holds the dictation sentences and chooses which one to
// present next.
//
// Problems are loaded once from a JSON array of {"id", "text"} objects, read
// from a local file, an http(s) URL, or the list embedded in the binary.
// A [Picker] draws uniformly at random, never repeating the current problem
// when more than one is available.
package problem

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty is returned when a problem list has no entries.
	ErrEmpty = errors.New("problem: empty problem list")

	// ErrNotFound is returned by [Picker.Lookup] for an unknown id.
	ErrNotFound = errors.New("problem: not found")
)

// Problem is one dictation sentence.
type Problem struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Validate checks that ids are unique and every text is non-blank. All
// violations are reported together.
func Validate(problems []Problem) error {
	if len(problems) == 0 {
		return ErrEmpty
	}

	var errs []error
	seen := make(map[int]int, len(problems))
	for i, p := range problems {
		if strings.TrimSpace(p.Text) == "" {
			errs = append(errs, fmt.Errorf("problem: entry %d (id %d): text is empty", i, p.ID))
		}
		if first, dup := seen[p.ID]; dup {
			errs = append(errs, fmt.Errorf("problem: entry %d: id %d already used by entry %d", i, p.ID, first))
			continue
		}
		seen[p.ID] = i
	}
	return errors.Join(errs...)
}
