/*
Copyright © 2025 Logicos Software

builder.go turns parse trees into expression trees.
*/
package ast

import (
	"fmt"

	"pkipipe/internal/errs"
	"pkipipe/internal/parser"
	"pkipipe/internal/value"
)

// FunctionResolver checks function names at build time. ResolveFunction
// returns nil for a registered name and an UnknownFunction error otherwise.
type FunctionResolver interface {
	ResolveFunction(name string) error
}

// operatorCommands maps operator forms to the commands they desugar into.
var operatorCommands = map[string]string{
	".":  "property",
	"=":  "equals",
	"!=": "not-equals",
}

// Parse parses src and builds its tree.
func Parse(src string, r FunctionResolver) (Node, error) {
	list, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return Build(list, r)
}

// Build walks a parse tree into exactly one root node. Single-child lists
// collapse to their child. Function names are resolved against r; command
// names are left for the engine to resolve at run time.
func Build(list *parser.ExprList, r FunctionResolver) (Node, error) {
	b := &builder{resolver: r}
	return b.exprList(list)
}

type builder struct {
	resolver FunctionResolver
}

func (b *builder) exprList(list *parser.ExprList) (Node, error) {
	if len(list.Exprs) == 1 {
		return b.expr(list.Exprs[0])
	}
	fan := &FanOut{}
	for _, e := range list.Exprs {
		n, err := b.expr(e)
		if err != nil {
			return nil, err
		}
		fan.Branches = append(fan.Branches, n)
	}
	return fan, nil
}

func (b *builder) expr(e *parser.Expr) (Node, error) {
	if len(e.Elements) == 1 {
		return b.element(e.Elements[0])
	}
	pipe := &Pipe{}
	for _, el := range e.Elements {
		n, err := b.element(el)
		if err != nil {
			return nil, err
		}
		pipe.Stages = append(pipe.Stages, n)
	}
	return pipe, nil
}

func (b *builder) element(el parser.Element) (Node, error) {
	switch el := el.(type) {
	case *parser.LiteralElem:
		return literal(el.Tok)
	case *parser.GroupElem:
		return b.exprList(el.List)
	case *parser.CommandElem:
		args, err := texts(el.Args)
		if err != nil {
			return nil, err
		}
		return &Command{Name: el.Name.Text, Args: args, Quoted: quoted(el.Args), Pos: el.Name.Pos}, nil
	case *parser.OperatorElem:
		args, err := texts(el.Args)
		if err != nil {
			return nil, err
		}
		return &Command{Name: operatorCommands[el.Op], Args: args, Quoted: quoted(el.Args), Pos: el.Pos}, nil
	case *parser.FunctionElem:
		return b.function(el)
	default:
		return nil, fmt.Errorf("ast: unexpected parse tree element %T", el)
	}
}

func (b *builder) function(el *parser.FunctionElem) (Node, error) {
	if b.resolver != nil {
		if err := b.resolver.ResolveFunction(el.Name.Text); err != nil {
			return nil, err
		}
	}
	opts, err := texts(el.Options)
	if err != nil {
		return nil, err
	}
	fn := &Function{Name: el.Name.Text, Options: opts, Pos: el.Name.Pos}
	for _, a := range el.Args {
		n, err := b.expr(a)
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, n)
	}
	return fn, nil
}

func literal(tok parser.Token) (Node, error) {
	src := value.NewSource("literal " + tok.Text)
	if tok.Kind == parser.TokenNumber {
		n, err := value.ParseNumber(src, tok.Text)
		if err != nil {
			return nil, errs.Syntax(tok.Pos, "invalid number %q", tok.Text)
		}
		return &Literal{Value: n}, nil
	}
	s, err := parser.Unquote(tok)
	if err != nil {
		return nil, err
	}
	return &Literal{Value: value.NewString(src, s)}, nil
}

func texts(toks []parser.Token) ([]string, error) {
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		s, err := parser.Unquote(t)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// quoted returns the quoting flags of toks, or nil when none is quoted.
func quoted(toks []parser.Token) []bool {
	var out []bool
	for i, t := range toks {
		if t.Kind != parser.TokenQuoted {
			continue
		}
		if out == nil {
			out = make([]bool, len(toks))
		}
		out[i] = true
	}
	return out
}

// BuildBody turns the arguments of an iteration command into a list of
// stages evaluated like a pipe. A bare argument starting with '.', '=' or
// '!=' opens an operator stage, an argument "|" closes the current stage,
// and otherwise the first argument of a stage names a command. Quoted
// arguments are never operators.
func BuildBody(c *Command) ([]Node, error) {
	var stages []Node
	var cur *Command
	flush := func() {
		if cur != nil {
			stages = append(stages, cur)
			cur = nil
		}
	}
	add := func(arg string, q bool) {
		cur.Args = append(cur.Args, arg)
		if q {
			if cur.Quoted == nil {
				cur.Quoted = make([]bool, len(cur.Args)-1, len(cur.Args))
			}
			cur.Quoted = append(cur.Quoted, true)
		} else if cur.Quoted != nil {
			cur.Quoted = append(cur.Quoted, false)
		}
	}
	for i, a := range c.Args {
		q := c.IsQuoted(i)
		if a == "|" {
			if cur == nil {
				return nil, errs.BadArgument("empty stage in body %q", c.Args)
			}
			flush()
			continue
		}
		if op, rest, ok := parser.SplitOperator(a); ok && !q {
			flush()
			cur = &Command{Name: operatorCommands[op], Args: []string{}}
			if rest != "" {
				add(rest, false)
			}
			continue
		}
		if cur == nil {
			cur = &Command{Name: a, Args: []string{}}
			continue
		}
		add(a, q)
	}
	flush()
	if len(stages) == 0 {
		return nil, errs.BadArgument("empty body")
	}
	return stages, nil
}
