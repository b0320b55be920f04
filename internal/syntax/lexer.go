package syntax

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind classifies condition-expression tokens.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenTrue
	tokenFalse
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
	col  int // 1-based column within the condition text
}

// lexCondition tokenizes the text between "if" and ":" of a conditional
// entry. Keywords (and, or, not, true, false) are reserved; everything else
// alphanumeric is a property name.
func lexCondition(s string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", col: i + 1})
			i++

		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", col: i + 1})
			i++

		case c == '=':
			if i+1 >= len(s) || s[i+1] != '=' {
				return nil, fmt.Errorf("column %d: expected '==' ", i+1)
			}
			tokens = append(tokens, token{kind: tokenEq, text: "==", col: i + 1})
			i += 2

		case c == '!':
			if i+1 >= len(s) || s[i+1] != '=' {
				return nil, fmt.Errorf("column %d: expected '!='", i+1)
			}
			tokens = append(tokens, token{kind: tokenNeq, text: "!=", col: i + 1})
			i += 2

		case c == '"':
			end := i + 1
			for end < len(s) && s[end] != '"' {
				if s[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(s) {
				return nil, fmt.Errorf("column %d: unterminated string", i+1)
			}
			text := strings.ReplaceAll(s[i+1:end], `\"`, `"`)
			tokens = append(tokens, token{kind: tokenString, text: text, col: i + 1})
			i = end + 1

		case c >= '0' && c <= '9', c == '-' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9':
			end := i + 1
			for end < len(s) && s[end] >= '0' && s[end] <= '9' {
				end++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: s[i:end], col: i + 1})
			i = end

		case isIdentStart(rune(c)):
			end := i + 1
			for end < len(s) && isIdentPart(rune(s[end])) {
				end++
			}
			word := s[i:end]
			kind := tokenIdent
			switch word {
			case "and":
				kind = tokenAnd
			case "or":
				kind = tokenOr
			case "not":
				kind = tokenNot
			case "true":
				kind = tokenTrue
			case "false":
				kind = tokenFalse
			}
			tokens = append(tokens, token{kind: kind, text: word, col: i + 1})
			i = end

		default:
			return nil, fmt.Errorf("column %d: unexpected character %q", i+1, c)
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, col: len(s) + 1})
	return tokens, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
