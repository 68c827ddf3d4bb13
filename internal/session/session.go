// Package session tracks one learner's progress through the problem list.
//
// A [Session] is the state behind the practice screen: the current problem,
// the typed answer and the outcome of the last check. It is driven by UI
// events (typing, Check, Show Answer, Next Question) and is not safe for
// concurrent use; the UI event loop owns it.
//
// Until a problem list is loaded the session is in the loading state and
// every event except [Session.Load] and [Session.SetAnswer] fails with
// [ErrLoading].
package session

import (
	"errors"
	"fmt"

	"github.com/MrWong99/dictsy/internal/answer"
	"github.com/MrWong99/dictsy/internal/problem"
)

var (
	// ErrLoading is returned for events that need a problem while none is
	// loaded.
	ErrLoading = errors.New("session: problems not loaded")

	// ErrRevealNotAllowed is returned by [Session.Reveal] unless the last
	// check was incorrect.
	ErrRevealNotAllowed = errors.New("session: reveal is only allowed after an incorrect answer")
)

// Option configures a [Session].
type Option func(*Session)

// WithNormalizer sets the normalizer used to judge answers. Default: exact
// mode.
func WithNormalizer(n *answer.Normalizer) Option {
	return func(s *Session) {
		s.normalizer = n
	}
}

// Session holds the state of one practice run.
type Session struct {
	picker     *problem.Picker
	normalizer *answer.Normalizer

	current  problem.Problem
	loaded   bool
	answer   string
	verdict  answer.Verdict
	checked  bool
	revealed bool
}

// View is a snapshot of a [Session] for rendering.
type View struct {
	Loading bool
	Problem problem.Problem
	Answer  string
	Verdict answer.Verdict

	// Checked is set once the answer has been judged and cleared when it
	// is edited.
	Checked bool

	// Revealed is set when the reference is shown after an incorrect answer.
	Revealed bool

	// CanCheck is true while there is an unjudged answer state.
	CanCheck bool

	// CanReveal is true when Show Answer is offered.
	CanReveal bool

	// ReferenceVisible is true when the reference text may be displayed:
	// after a correct answer or after a reveal.
	ReferenceVisible bool
}

// New returns a session. When picker is nil the session starts in the
// loading state; call [Session.Load] once problems are available.
func New(picker *problem.Picker, opts ...Option) (*Session, error) {
	s := &Session{}
	for _, o := range opts {
		o(s)
	}
	if s.normalizer == nil {
		s.normalizer = answer.New()
	}
	if picker == nil {
		return s, nil
	}
	if err := s.Load(picker); err != nil {
		return s, err
	}
	return s, nil
}

// Load installs a problem list and draws the first problem. On error the
// session stays in (or returns to) the loading state.
func (s *Session) Load(picker *problem.Picker) error {
	first, err := picker.First()
	if err != nil {
		s.picker, s.loaded = nil, false
		return fmt.Errorf("session: load: %w", err)
	}
	s.picker = picker
	s.current = first
	s.loaded = true
	s.clear()
	return nil
}

// SetNormalizer swaps the normalizer, e.g. after a config reload. The
// current verdict is kept.
func (s *Session) SetNormalizer(n *answer.Normalizer) {
	if n != nil {
		s.normalizer = n
	}
}

// Loading reports whether no problem list is loaded yet.
func (s *Session) Loading() bool {
	return !s.loaded
}

// Current returns the problem being practised.
func (s *Session) Current() (problem.Problem, error) {
	if !s.loaded {
		return problem.Problem{}, ErrLoading
	}
	return s.current, nil
}

// SetAnswer replaces the typed answer. Any earlier judgment and reveal are
// discarded, even when the text is unchanged.
func (s *Session) SetAnswer(text string) {
	s.answer = text
	s.verdict = answer.Unknown
	s.checked = false
	s.revealed = false
}

// Check judges the current answer against the reference.
func (s *Session) Check() (answer.Verdict, error) {
	if !s.loaded {
		return answer.Unknown, ErrLoading
	}
	s.checked = true
	s.verdict = s.normalizer.Judge(s.answer, s.current.Text)
	return s.verdict, nil
}

// Reveal shows the reference after an incorrect answer.
func (s *Session) Reveal() error {
	if !s.loaded {
		return ErrLoading
	}
	if !s.checked || s.verdict != answer.Incorrect {
		return ErrRevealNotAllowed
	}
	s.revealed = true
	return nil
}

// Next advances to a different problem when more than one exists and
// clears the answer and judgment. It may be called at any time.
func (s *Session) Next() (problem.Problem, error) {
	if !s.loaded {
		return problem.Problem{}, ErrLoading
	}
	next, err := s.picker.Pick(s.current.ID)
	if err != nil {
		return problem.Problem{}, fmt.Errorf("session: next: %w", err)
	}
	s.current = next
	s.answer = ""
	s.clear()
	return next, nil
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	return View{
		Loading:          !s.loaded,
		Problem:          s.current,
		Answer:           s.answer,
		Verdict:          s.verdict,
		Checked:          s.checked,
		Revealed:         s.revealed,
		CanCheck:         s.loaded && (!s.checked || s.verdict == answer.Unknown),
		CanReveal:        s.loaded && s.checked && s.verdict == answer.Incorrect && !s.revealed,
		ReferenceVisible: s.checked && (s.verdict == answer.Correct || s.revealed),
	}
}

func (s *Session) clear() {
	s.verdict = answer.Unknown
	s.checked = false
	s.revealed = false
}
