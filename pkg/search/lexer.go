package search

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokColon
	tokLParen
	tokRParen
	tokLT
	tokGT
	tokCode // {QuestionCode}
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// tokenize splits a query into words, quoted strings, code qualifiers and
// punctuation. Words may contain letters, digits, dashes, underscores and
// dots so dates and qualifier names scan as single tokens.
func tokenize(query string) ([]token, error) {
	var tokens []token
	runes := []rune(query)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ':':
			tokens = append(tokens, token{kind: tokColon, text: ":", pos: i})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '<':
			tokens = append(tokens, token{kind: tokLT, text: "<", pos: i})
			i++
		case r == '>':
			tokens = append(tokens, token{kind: tokGT, text: ">", pos: i})
			i++
		case r == '|':
			// OR separator inside parenthesized value lists; values are
			// OR-combined anyway, so it reads as whitespace.
			i++
		case r == '"':
			end := i + 1
			for end < len(runes) && runes[end] != '"' {
				end++
			}
			if end >= len(runes) {
				return nil, &ParseError{Token: "\"", Msg: "unterminated quoted string in search query"}
			}
			tokens = append(tokens, token{kind: tokQuoted, text: string(runes[i+1 : end]), pos: i})
			i = end + 1
		case r == '{':
			end := i + 1
			for end < len(runes) && runes[end] != '}' {
				end++
			}
			if end >= len(runes) {
				return nil, &ParseError{Token: "{", Msg: "unterminated '{' in search query"}
			}
			tokens = append(tokens, token{kind: tokCode, text: string(runes[i+1 : end]), pos: i})
			i = end + 1
		default:
			end := i
			for end < len(runes) && isWordRune(runes[end]) {
				end++
			}
			if end == i {
				// Unknown punctuation; treat as part of free text.
				end = i + 1
			}
			tokens = append(tokens, token{kind: tokWord, text: string(runes[i:end]), pos: i})
			i = end
		}
	}
	return tokens, nil
}

func isWordRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("-_.'#@/", r)
}
