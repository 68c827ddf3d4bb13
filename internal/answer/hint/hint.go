// Package hint explains where an incorrect dictation answer went wrong.
//
// Both strings are expected in normalized form. Words are aligned with a
// longest-common-subsequence pass; every stretch between aligned words is a
// gap holding the answer words that were not matched and the reference words
// that were not produced. Inside a gap each answer word is paired with the
// reference word it most resembles:
//
//  1. Phonetic candidates: Double Metaphone codes of the two words overlap
//     and their Jaro-Winkler similarity reaches the phonetic threshold.
//
//  2. Fuzzy candidates: no phonetic overlap but Jaro-Winkler similarity
//     reaches the higher fuzzy threshold.
//
// Answer words with no candidate are paired positionally with the remaining
// reference word at the same offset in the gap, or reported as extra.
// Reference words left over are reported as missing.
//
// Hints are advisory and never change a verdict.
package hint

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Kind classifies a [Hint].
type Kind string

const (
	// SoundsLike pairs an answer word with a reference word that is
	// phonetically or orthographically close.
	SoundsLike Kind = "sounds_like"
	// WrongWord pairs an answer word with the reference word in its place.
	WrongWord Kind = "wrong_word"
	// Extra marks an answer word with no reference counterpart.
	Extra Kind = "extra"
	// Missing marks a reference word absent from the answer.
	Missing Kind = "missing"
)

// Hint describes one difference between answer and reference.
type Hint struct {
	Kind  Kind    `json:"kind"`
	Got   string  `json:"got,omitempty"`
	Want  string  `json:"want,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// Option configures a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a pair whose
// phonetic codes overlap. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a pair without
// phonetic overlap. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher computes hints. It is read-only after construction and safe for
// concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Hints returns the differences between answer and reference in reference
// order. It returns nil when the word sequences are identical.
func (m *Matcher) Hints(answer, reference string) []Hint {
	got := strings.Fields(answer)
	want := strings.Fields(reference)

	var hints []Hint
	var gapGot, gapWant []string
	flush := func() {
		hints = append(hints, m.resolveGap(gapGot, gapWant)...)
		gapGot, gapWant = gapGot[:0], gapWant[:0]
	}

	i, j := 0, 0
	for _, p := range align(got, want) {
		gapGot = append(gapGot, got[i:p.a]...)
		gapWant = append(gapWant, want[j:p.b]...)
		flush()
		i, j = p.a+1, p.b+1
	}
	gapGot = append(gapGot, got[i:]...)
	gapWant = append(gapWant, want[j:]...)
	flush()

	return hints
}

func (m *Matcher) resolveGap(got, want []string) []Hint {
	if len(got) == 0 && len(want) == 0 {
		return nil
	}

	used := make([]bool, len(want))
	var out []Hint
	for idx, g := range got {
		if k, score, ok := m.closest(g, want, used); ok {
			used[k] = true
			out = append(out, Hint{Kind: SoundsLike, Got: g, Want: want[k], Score: score})
			continue
		}
		if idx < len(want) && !used[idx] {
			used[idx] = true
			out = append(out, Hint{Kind: WrongWord, Got: g, Want: want[idx]})
			continue
		}
		out = append(out, Hint{Kind: Extra, Got: g})
	}
	for k, w := range want {
		if !used[k] {
			out = append(out, Hint{Kind: Missing, Want: w})
		}
	}
	return out
}

// closest picks the unused candidate that best resembles word. Phonetic
// candidates always win over fuzzy ones.
func (m *Matcher) closest(word string, candidates []string, used []bool) (int, float64, bool) {
	codes := codesFor(word)

	best, bestScore, bestPhonetic := -1, 0.0, false
	for k, c := range candidates {
		if used[k] {
			continue
		}
		score := matchr.JaroWinkler(word, c, false)
		if codesOverlap(codes, codesFor(c)) {
			if score >= m.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = k, score, true
			}
		} else if !bestPhonetic && score >= m.fuzzyThreshold && score > bestScore {
			best, bestScore = k, score
		}
	}
	return best, bestScore, best >= 0
}

func codesFor(word string) map[string]struct{} {
	codes := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(word)
	if p != "" {
		codes[p] = struct{}{}
	}
	if s != "" {
		codes[s] = struct{}{}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

type pair struct{ a, b int }

// align returns the index pairs of a longest common subsequence of a and b.
func align(a, b []string) []pair {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else {
				dp[i][j] = max(dp[i+1][j], dp[i][j+1])
			}
		}
	}

	var out []pair
	for i, j := 0, 0; i < n && j < m; {
		switch {
		case a[i] == b[j]:
			out = append(out, pair{i, j})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return out
}
