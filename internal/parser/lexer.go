/*
Copyright © 2025 Logicos Software

lexer.go splits expression text into tokens.
*/

// Package parser turns pipeline expression text into a parse tree.
//
// The lexer recognises words, numbers, quoted words and the punctuation
// '|', ',', '(', ')', '[' and ']'. Operator forms ('.', '=', '!=') are not
// separate tokens: the parser recognises them as the prefix of a word that
// starts an expression element.
package parser

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"pkipipe/internal/errs"
)

// TokenKind classifies a token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenWord
	TokenNumber
	TokenQuoted
	TokenPipe
	TokenComma
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
)

var tokenNames = map[TokenKind]string{
	TokenEOF:      "end of input",
	TokenWord:     "word",
	TokenNumber:   "number",
	TokenQuoted:   "quoted word",
	TokenPipe:     "'|'",
	TokenComma:    "','",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
	TokenLBracket: "'['",
	TokenRBracket: "']'",
}

// String returns a readable token kind name.
func (k TokenKind) String() string {
	return tokenNames[k]
}

// Token is one lexical unit. Text is the raw source text, including quotes
// for quoted words.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

var numberPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Lex splits src into tokens, ending with a TokenEOF.
func Lex(src string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '|':
			toks = append(toks, Token{Kind: TokenPipe, Text: "|", Pos: i})
			i++
		case r == ',':
			toks = append(toks, Token{Kind: TokenComma, Text: ",", Pos: i})
			i++
		case r == '(':
			toks = append(toks, Token{Kind: TokenLParen, Text: "(", Pos: i})
			i++
		case r == ')':
			toks = append(toks, Token{Kind: TokenRParen, Text: ")", Pos: i})
			i++
		case r == '[':
			toks = append(toks, Token{Kind: TokenLBracket, Text: "[", Pos: i})
			i++
		case r == ']':
			toks = append(toks, Token{Kind: TokenRBracket, Text: "]", Pos: i})
			i++
		case r == '\'' || r == '"':
			end, err := scanQuoted(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokenQuoted, Text: src[i:end], Pos: i})
			i = end
		default:
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if !isWordRune(r) {
					break
				}
				i += size
			}
			text := src[start:i]
			kind := TokenWord
			if numberPattern.MatchString(text) {
				kind = TokenNumber
			}
			toks = append(toks, Token{Kind: kind, Text: text, Pos: start})
		}
	}
	toks = append(toks, Token{Kind: TokenEOF, Pos: len(src)})
	return toks, nil
}

func isWordRune(r rune) bool {
	if unicode.IsSpace(r) {
		return false
	}
	switch r {
	case '|', ',', '(', ')', '[', ']', '\'', '"':
		return false
	}
	return true
}

// scanQuoted returns the offset just past the closing quote of the quoted
// word starting at start. Inside double quotes a backslash escapes the next
// character; single quotes have no escapes.
func scanQuoted(src string, start int) (int, error) {
	quote := src[start]
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\' && quote == '"':
			i += 2
		case c == quote:
			return i + 1, nil
		default:
			i++
		}
	}
	return 0, errs.Syntax(start, "unterminated quoted word")
}
