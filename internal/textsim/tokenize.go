package textsim

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// minTokenRunes drops single-character tokens.
const minTokenRunes = 2

// Tokenize splits text on word boundaries, case-folds each word and drops
// stop words and tokens shorter than two runes.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	// A Caser is stateful, so each call gets its own.
	folded := cases.Fold().String(text)

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < minTokenRunes || IsStopWord(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
