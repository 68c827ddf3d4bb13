// Package answer decides whether a typed dictation answer matches the
// reference sentence.
//
// Comparison is done on normalized forms. The default normalizer strips a
// fixed punctuation set, collapses whitespace, lowercases, and then runs an
// ordered table of whole-word contraction rewrites. The table is applied
// exactly as listed, one rule after another, and several of its rules can
// never match because the apostrophe they look for was already removed. The
// net effect of the table on stripped text is that "cannot" becomes "can't".
//
// A [Normalizer] built with [WithContractionFolding] instead expands
// apostrophe contractions to their long forms before punctuation is removed,
// so that "I'm fine." and "i am fine" compare equal.
//
// All functions are pure and safe for concurrent use.
package answer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// punctuation is the set of characters removed before comparison.
var punctuation = regexp.MustCompile("[.,!?\\-\"'`]")

// whitespaceRun matches runs of the ECMAScript whitespace and line
// terminator set. Go's \s class is ASCII only and misses \v, NBSP and the
// Unicode space separators.
var whitespaceRun = regexp.MustCompile("[" + jsSpaceClass + "]+")

const jsSpaceClass = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

// lower applies full Unicode lowercasing. A cases.Caser keeps state, so
// each call builds its own.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// isSpace reports whether r belongs to the ECMAScript whitespace set.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// Option configures a [Normalizer].
type Option func(*Normalizer)

// WithContractionFolding switches the normalizer to folding mode: apostrophe
// contractions are expanded before punctuation is stripped and "cannot"
// becomes "can not". Folding mode is idempotent on every input.
func WithContractionFolding(enabled bool) Option {
	return func(n *Normalizer) {
		n.fold = enabled
	}
}

// Normalizer produces comparison forms of answers and references.
// The zero value is ready to use and runs in exact mode.
type Normalizer struct {
	fold bool
}

// New returns a [Normalizer] configured with opts.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Folding reports whether n runs in contraction folding mode.
func (n *Normalizer) Folding() bool {
	return n != nil && n.fold
}

// Normalize returns the comparison form of s.
func (n *Normalizer) Normalize(s string) string {
	if n.Folding() {
		return fold(s)
	}
	return exact(s)
}

// Equivalent reports whether a and b have the same comparison form.
func (n *Normalizer) Equivalent(a, b string) bool {
	return n.Normalize(a) == n.Normalize(b)
}

// Judge returns [Correct] when answer is equivalent to reference and
// [Incorrect] otherwise. It never returns [Unknown].
func (n *Normalizer) Judge(answer, reference string) Verdict {
	if n.Equivalent(answer, reference) {
		return Correct
	}
	return Incorrect
}

var defaultNormalizer = &Normalizer{}

// Normalize returns the exact-mode comparison form of s.
func Normalize(s string) string { return defaultNormalizer.Normalize(s) }

// Equivalent reports whether a and b normalize identically in exact mode.
func Equivalent(a, b string) bool { return defaultNormalizer.Equivalent(a, b) }

// Judge grades answer against reference in exact mode.
func Judge(answer, reference string) Verdict { return defaultNormalizer.Judge(answer, reference) }

func exact(s string) string {
	s = strings.TrimFunc(s, isSpace)
	s = punctuation.ReplaceAllLiteralString(s, "")
	s = whitespaceRun.ReplaceAllLiteralString(s, " ")
	s = lower(s)
	for _, r := range contractionTable {
		s = r.re.ReplaceAllLiteralString(s, r.with)
	}
	return s
}

func fold(s string) string {
	s = lower(s)
	s = strings.ReplaceAll(s, "\u2019", "'")
	for _, r := range expansions {
		s = r.re.ReplaceAllLiteralString(s, r.with)
	}
	s = punctuation.ReplaceAllLiteralString(s, "")
	s = whitespaceRun.ReplaceAllLiteralString(s, " ")
	s = strings.TrimFunc(s, isSpace)
	return cannot.ReplaceAllLiteralString(s, "can not")
}
