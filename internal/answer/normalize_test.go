package answer_test

import (
	"sync"
	"testing"

	"github.com/MrWong99/dictsy/internal/answer"
)

func TestNormalize_Exact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \t\n ", want: ""},
		{name: "punctuation and case", in: "Hello,  World!", want: "hello world"},
		{name: "surrounding whitespace", in: "  Hello   world  ", want: "hello world"},
		{name: "all stripped marks", in: "\"Quoted\" `tick` - dash?", want: "quoted tick dash"},
		{name: "tab and newline", in: "hello\t\nworld", want: "hello world"},
		{name: "vertical tab", in: "a\vb", want: "a b"},
		{name: "no-break space", in: "hello world", want: "hello world"},
		{name: "ideographic space", in: "hello　world", want: "hello world"},
		{name: "unicode lowercase", in: "ÉCOLE Über", want: "école über"},
		{name: "apostrophe contraction loses apostrophe", in: "I'm fine.", want: "im fine"},
		{name: "long form round trips", in: "i am fine", want: "i am fine"},
		{name: "do not round trips", in: "Do not stop", want: "do not stop"},
		{name: "dont stays", in: "Don't stop!", want: "dont stop"},
		{name: "can not round trips", in: "I can not go", want: "i can not go"},
		{name: "cannot contracts", in: "I cannot go", want: "i can't go"},
		{name: "cannot needs word boundary", in: "icannot", want: "icannot"},
		{name: "i am needs word boundary", in: "i amazing", want: "i amazing"},
		{name: "they are round trips", in: "They are here.", want: "they are here"},
		{name: "it is round trips", in: "It is late", want: "it is late"},
		{name: "inner punctuation joins words", in: "well-known", want: "wellknown"},
		{name: "trailing separated mark leaves space", in: "hello !", want: "hello "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := answer.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEquivalent_Exact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"Hello, World!", "hello world", true},
		{"HELLO world.", "Hello, world!", true},
		{"I cannot swim.", "i cannot swim", true},
		{"", "", true},
		{"", "Hello", false},
		{"Hello", "Help", false},
		// Apostrophe forms are stripped before the table runs, so they no
		// longer match their long forms.
		{"I'm fine.", "i am fine", false},
		{"Don't stop!", "do not stop", false},
		{"I cannot swim", "I can't swim", false},
	}

	for _, tt := range tests {
		if got := answer.Equivalent(tt.a, tt.b); got != tt.want {
			t.Errorf("Equivalent(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEquivalent_Symmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"Hello, World!", "hello world"},
		{"I'm fine.", "i am fine"},
		{"The cat sat.", "the dog sat"},
		{"", "x"},
	}
	for _, p := range pairs {
		if answer.Equivalent(p[0], p[1]) != answer.Equivalent(p[1], p[0]) {
			t.Errorf("Equivalent not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestNormalize_ExactIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"Hello, World!",
		"I'm fine.",
		"i am fine",
		"Don't stop!",
		"They are here, aren't they?",
		"It is what it is.",
		"ÉCOLE Über",
		"We are   the   champions",
	}
	for _, in := range inputs {
		once := answer.Normalize(in)
		if twice := answer.Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestNormalize_ExactNotIdempotent(t *testing.T) {
	t.Parallel()

	// The exact table rewrites "cannot" to "can't" after stripping, and a mark
	// separated from the edge by whitespace leaves a space that only the next
	// pass trims.
	tests := []struct {
		in          string
		once, twice string
	}{
		{in: "I cannot go", once: "i can't go", twice: "i cant go"},
		{in: "hello !", once: "hello ", twice: "hello"},
		{in: ". Hi", once: " hi", twice: "hi"},
	}
	for _, tt := range tests {
		once := answer.Normalize(tt.in)
		if once != tt.once {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, once, tt.once)
		}
		if twice := answer.Normalize(once); twice != tt.twice {
			t.Errorf("Normalize(%q) = %q, want %q", once, twice, tt.twice)
		}
	}
}

func TestNormalizer_Folding(t *testing.T) {
	t.Parallel()

	n := answer.New(answer.WithContractionFolding(true))
	if !n.Folding() {
		t.Fatal("Folding() = false, want true")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"I'm fine.", "i am fine"},
		{"i am fine", "i am fine"},
		{"Don't stop!", "do not stop"},
		{"I cannot swim", "i can not swim"},
		{"I can't swim", "i can not swim"},
		{"can-not", "can not"},
		{"It’s late", "it is late"},
		{"They're here; we're not.", "they are here; we are not"},
		{"hello !", "hello"},
		{"  WON'T  ", "will not"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizer_FoldingEquivalences(t *testing.T) {
	t.Parallel()

	n := answer.New(answer.WithContractionFolding(true))
	pairs := [][2]string{
		{"I'm fine.", "i am fine"},
		{"Don't stop!", "do not stop"},
		{"Hello, World!", "hello world"},
		{"I cannot swim", "I can't swim"},
		{"It's raining", "it is raining"},
	}
	for _, p := range pairs {
		if !n.Equivalent(p[0], p[1]) {
			t.Errorf("Equivalent(%q, %q) = false, want true", p[0], p[1])
		}
	}
}

func TestNormalizer_FoldingIdempotent(t *testing.T) {
	t.Parallel()

	n := answer.New(answer.WithContractionFolding(true))
	inputs := []string{
		"",
		"I cannot go",
		"hello !",
		". Hi",
		"I'm fine.",
		"Don't stop!",
		"can-not",
		"ÉCOLE Über",
		"They're here, aren't they?",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestNormalizer_ZeroValueIsExact(t *testing.T) {
	t.Parallel()

	var n answer.Normalizer
	if n.Folding() {
		t.Fatal("zero Normalizer reports folding")
	}
	if got := n.Normalize("I'm fine."); got != "im fine" {
		t.Errorf("Normalize = %q, want %q", got, "im fine")
	}
}

func TestNormalize_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := answer.Normalize("Hello, World!"); got != "hello world" {
					t.Errorf("Normalize = %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
