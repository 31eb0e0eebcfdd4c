package search

import (
	"strings"
	"unicode"
)

// Stop words ignored by keyword matching, English and Portuguese
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"at": true, "this": true, "by": true, "from": true, "or": true,
	"o": true, "os": true, "as": true, "um": true, "uma": true, "de": true,
	"da": true, "do": true, "das": true, "dos": true, "em": true, "na": true,
	"no": true, "para": true, "com": true, "que": true, "e": true, "por": true,
}

// tokenize splits text into lowercased words stripped of surrounding punctuation.
func tokenize(text string) []string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		}))
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// tokenizeAndFilter tokenizes text and removes stop words.
func tokenizeAndFilter(text string) []string {
	words := tokenize(text)
	filtered := words[:0]
	for _, word := range words {
		if !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}

// containsAllQueryWords checks if all filtered query words appear in the document.
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := make(map[string]bool)
	for _, word := range tokenize(document) {
		docWords[word] = true
	}

	for _, qWord := range queryWords {
		if !docWords[qWord] {
			return false
		}
	}
	return true
}
