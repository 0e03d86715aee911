/*
Copyright © 2025 Logicos Software

unquote.go decodes single and double quoted words.
*/
package parser

import (
	"strconv"
	"strings"

	"pkipipe/internal/errs"
)

// Unquote returns the text of a token. Quoted words are unescaped: single
// quotes take their contents literally, double quotes process \" \\ \b \f
// \n \r \t and \uXXXX. Words and numbers are returned unchanged.
func Unquote(tok Token) (string, error) {
	if tok.Kind != TokenQuoted {
		return tok.Text, nil
	}
	raw := tok.Text
	if raw[0] == '\'' {
		if len(raw) <= 2 {
			return "", nil
		}
		return raw[1 : len(raw)-1], nil
	}
	return unescape(raw[1:len(raw)-1], tok.Pos+1)
}

func unescape(s string, pos int) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", errs.Syntax(pos+i, "trailing backslash in quoted word")
		}
		i++
		switch s[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			if i+5 > len(s) {
				return "", errs.Syntax(pos+i, `\u escape needs 4 hex digits`)
			}
			n, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", errs.Syntax(pos+i, `invalid \u escape %q`, s[i+1:i+5])
			}
			b.WriteRune(rune(n))
			i += 4
		default:
			return "", errs.Syntax(pos+i, `unknown escape \%c`, s[i])
		}
	}
	return b.String(), nil
}
