// Package lyrics splits raw song lyrics into the ordered, typed tokens a
// round is played on.
package lyrics

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"rapantix/internal/normalize"
)

// Kind classifies a token.
type Kind string

const (
	KindBreak       Kind = "break"
	KindPunctuation Kind = "punctuation"
	KindHeader      Kind = "header"
	KindWord        Kind = "word"
)

// NoWordIndex is the WordIndex of every token that is not a word.
const NoWordIndex = -1

// Token is one classified span of the lyrics. Tokens are immutable once a
// round starts.
type Token struct {
	ID        int    `json:"id"`
	Kind      Kind   `json:"kind"`
	Value     string `json:"value"`
	WordIndex int    `json:"wordIndex"`
}

// IsWord reports whether the token can be guessed.
func (t Token) IsWord() bool {
	return t.Kind == KindWord
}

// Normalized returns the comparison form of the token's value.
func (t Token) Normalized() string {
	return normalize.Text(t.Value)
}

type runClass int

const (
	runOther runClass = iota
	runLetters
	runBreak
)

func classify(r rune, inLetters bool) runClass {
	switch {
	case r == '\n':
		return runBreak
	case unicode.IsLetter(r) || unicode.IsDigit(r):
		return runLetters
	case inLetters && unicode.Is(unicode.Mn, r):
		// combining marks of decomposed input stay with their base letter
		return runLetters
	default:
		return runOther
	}
}

// Tokenize partitions text into maximal runs of letters/digits, single line
// breaks, and everything else. Letter runs inside a bracketed section marker
// such as "[Refrain]" are headers; an unterminated "[" turns every later
// letter run into a header. Concatenating the values of the result in order
// yields text unchanged.
func Tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/3)
	inHeader := false
	wordIndex := 0

	emit := func(kind Kind, value string) {
		tok := Token{ID: len(tokens), Kind: kind, Value: value, WordIndex: NoWordIndex}
		if kind == KindWord {
			tok.WordIndex = wordIndex
			wordIndex++
		}
		tokens = append(tokens, tok)
	}

	start := 0
	for start < len(text) {
		r, size := utf8.DecodeRuneInString(text[start:])
		class := classify(r, false)
		end := start + size

		if class == runBreak {
			emit(KindBreak, text[start:end])
			start = end
			continue
		}

		for end < len(text) {
			next, nsize := utf8.DecodeRuneInString(text[end:])
			if classify(next, class == runLetters) != class {
				break
			}
			end += nsize
		}

		run := text[start:end]
		if class == runLetters {
			if inHeader {
				emit(KindHeader, run)
			} else {
				emit(KindWord, run)
			}
		} else {
			inHeader = bracketState(run, inHeader)
			emit(KindPunctuation, run)
		}
		start = end
	}
	return tokens
}

// bracketState replays the "[" and "]" of a punctuation run over the
// current header flag.
func bracketState(run string, inHeader bool) bool {
	if !strings.ContainsAny(run, "[]") {
		return inHeader
	}
	for _, r := range run {
		switch r {
		case '[':
			inHeader = true
		case ']':
			inHeader = false
		}
	}
	return inHeader
}

// Join concatenates token values in order.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Value)
	}
	return b.String()
}

// WordCount returns the number of guessable tokens.
func WordCount(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if t.IsWord() {
			n++
		}
	}
	return n
}
