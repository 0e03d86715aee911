/*
Copyright © 2025 Logicos Software

parser.go implements the recursive descent parser.
*/
package parser

import (
	"strings"

	"pkipipe/internal/errs"
)

// Operator prefixes recognised at the start of an element. "!=" is checked
// before "=".
var operators = []string{"!=", "=", "."}

// Parse parses a complete expression list.
func Parse(src string) (*ExprList, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().Kind == TokenEOF {
		return nil, errs.Syntax(0, "empty expression")
	}
	list, err := p.exprList()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != TokenEOF {
		return nil, errs.Syntax(tok.Pos, "unexpected %s %q", tok.Kind, tok.Text)
	}
	return list, nil
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	tok := p.toks[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.next()
	if tok.Kind != kind {
		return tok, errs.Syntax(tok.Pos, "expected %s, found %s", kind, describe(tok))
	}
	return tok, nil
}

func describe(tok Token) string {
	if tok.Kind == TokenEOF {
		return tok.Kind.String()
	}
	return tok.Kind.String() + " " + tok.Text
}

func (p *parser) exprList() (*ExprList, error) {
	list := &ExprList{Pos: p.peek().Pos}
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		list.Exprs = append(list.Exprs, e)
		if p.peek().Kind != TokenComma {
			return list, nil
		}
		p.next()
	}
}

func (p *parser) expr() (*Expr, error) {
	e := &Expr{Pos: p.peek().Pos}
	for {
		el, err := p.element()
		if err != nil {
			return nil, err
		}
		e.Elements = append(e.Elements, el)
		if p.peek().Kind != TokenPipe {
			return e, nil
		}
		p.next()
	}
}

func (p *parser) element() (Element, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenQuoted, TokenNumber:
		p.next()
		return &LiteralElem{Tok: tok}, nil
	case TokenLParen:
		p.next()
		list, err := p.exprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return &GroupElem{List: list, Pos: tok.Pos}, nil
	case TokenWord:
		p.next()
		if op, rest, ok := SplitOperator(tok.Text); ok {
			el := &OperatorElem{Op: op, Pos: tok.Pos}
			if rest != "" {
				el.Args = append(el.Args, Token{Kind: TokenWord, Text: rest, Pos: tok.Pos + len(op)})
			}
			el.Args = append(el.Args, p.commandArgs()...)
			return el, nil
		}
		switch p.peek().Kind {
		case TokenLParen, TokenLBracket:
			return p.function(tok)
		}
		return &CommandElem{Name: tok, Args: p.commandArgs()}, nil
	default:
		return nil, errs.Syntax(tok.Pos, "unexpected %s", describe(tok))
	}
}

func (p *parser) function(name Token) (Element, error) {
	fn := &FunctionElem{Name: name}
	if p.peek().Kind == TokenLBracket {
		p.next()
		fn.Options = p.commandArgs()
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	if p.peek().Kind == TokenRParen {
		p.next()
		return fn, nil
	}
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, arg)
		tok := p.next()
		switch tok.Kind {
		case TokenComma:
			continue
		case TokenRParen:
			return fn, nil
		default:
			return nil, errs.Syntax(tok.Pos, "expected ',' or ')' in arguments of %s, found %s", name.Text, describe(tok))
		}
	}
}

func (p *parser) commandArgs() []Token {
	var args []Token
	for {
		switch tok := p.peek(); tok.Kind {
		case TokenWord, TokenNumber, TokenQuoted:
			args = append(args, p.next())
		default:
			return args
		}
	}
}

// SplitOperator reports whether word starts with an operator and returns
// the operator and the remaining text.
func SplitOperator(word string) (op, rest string, ok bool) {
	for _, o := range operators {
		if strings.HasPrefix(word, o) {
			return o, word[len(o):], true
		}
	}
	return "", "", false
}
