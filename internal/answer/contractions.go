package answer

import "regexp"

type rewrite struct {
	re   *regexp.Regexp
	with string
}

func word(pattern, with string) rewrite {
	return rewrite{re: regexp.MustCompile(`\b` + pattern + `\b`), with: with}
}

// contractionTable is applied in order, each rule once, by the exact-mode
// normalizer. Rules whose pattern contains an apostrophe never fire because
// punctuation is stripped first; they stay so the table matches the graded
// behaviour rule for rule.
var contractionTable = []rewrite{
	word("i am", "i'm"),
	word("i'm", "i am"),
	word("do not", "don't"),
	word("don't", "do not"),
	word("does not", "doesn't"),
	word("doesn't", "does not"),
	word("did not", "didn't"),
	word("didn't", "did not"),
	word("can not", "can't"),
	word("can't", "can not"),
	word("will not", "won't"),
	word("won't", "will not"),
	word("are not", "aren't"),
	word("aren't", "are not"),
	word("is not", "isn't"),
	word("isn't", "is not"),
	word("have not", "haven't"),
	word("haven't", "have not"),
	word("has not", "hasn't"),
	word("hasn't", "has not"),
	word("had not", "hadn't"),
	word("hadn't", "had not"),
	word("would not", "wouldn't"),
	word("wouldn't", "would not"),
	word("should not", "shouldn't"),
	word("shouldn't", "should not"),
	word("cannot", "can't"),
	word("they are", "they're"),
	word("they're", "they are"),
	word("we are", "we're"),
	word("we're", "we are"),
	word("you are", "you're"),
	word("you're", "you are"),
	word("it is", "it's"),
	word("it's", "it is"),
}

// expansions maps each apostrophe contraction to its long form for folding
// mode. Order does not matter: no long form contains a contraction.
var expansions = []rewrite{
	word("i'm", "i am"),
	word("don't", "do not"),
	word("doesn't", "does not"),
	word("didn't", "did not"),
	word("can't", "can not"),
	word("won't", "will not"),
	word("aren't", "are not"),
	word("isn't", "is not"),
	word("haven't", "have not"),
	word("hasn't", "has not"),
	word("hadn't", "had not"),
	word("wouldn't", "would not"),
	word("shouldn't", "should not"),
	word("they're", "they are"),
	word("we're", "we are"),
	word("you're", "you are"),
	word("it's", "it is"),
}

var cannot = regexp.MustCompile(`\bcannot\b`)
