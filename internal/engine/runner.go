/*
Copyright © 2025 Logicos Software

runner.go evaluates expression trees.
*/

// Package engine evaluates expression trees against a value stack.
//
// A Runner pairs the shared Context with one Stack. Pipes evaluate their
// stages on the same runner; fan-out branches and function arguments each
// get a duplicate, so nothing a branch pushes or pops is visible outside
// it. Any error aborts the whole evaluation.
package engine

import (
	"fmt"

	"pkipipe/internal/ast"
	"pkipipe/internal/value"
)

// Runner evaluates nodes against its own stack.
type Runner struct {
	ctx   *Context
	stack *Stack
	depth int
}

// NewRunner returns a runner over st. A nil st starts empty.
func NewRunner(ctx *Context, st *Stack) *Runner {
	if st == nil {
		st = NewStack()
	}
	return &Runner{ctx: ctx, stack: st}
}

// Context returns the shared execution context.
func (r *Runner) Context() *Context { return r.ctx }

// Stack returns the runner's stack.
func (r *Runner) Stack() *Stack { return r.stack }

// Duplicate returns a runner sharing the context with a copy of the stack.
func (r *Runner) Duplicate() *Runner {
	return &Runner{ctx: r.ctx, stack: r.stack.Duplicate(), depth: r.depth + 1}
}

// Eval evaluates n and returns the result view of the stack afterwards.
func (r *Runner) Eval(n ast.Node) (*value.Result, error) {
	return r.eval(n)
}

// EvalValue evaluates n on a duplicate and returns the duplicate's top
// value. The runner's own stack is left untouched.
func (r *Runner) EvalValue(n ast.Node) (value.Value, error) {
	d := r.Duplicate()
	if _, err := d.eval(n); err != nil {
		return nil, err
	}
	return d.stack.Peek("argument")
}

// EvalValues evaluates every node with EvalValue, in order.
func (r *Runner) EvalValues(nodes []ast.Node) ([]value.Value, error) {
	out := make([]value.Value, 0, len(nodes))
	for _, n := range nodes {
		v, err := r.EvalValue(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Result returns the result view of the stack: the top value when it is a
// Result, the default success marker otherwise.
func (r *Runner) Result() *value.Result {
	if top, err := r.stack.Peek("result"); err == nil {
		if res, ok := top.(*value.Result); ok {
			return res
		}
	}
	return value.DefaultSuccess
}

func (r *Runner) eval(n ast.Node) (*value.Result, error) {
	r.ctx.Env.Log().Debug("eval", "node", n.String(), "depth", r.depth, "stack", r.stack.Len())

	switch n := n.(type) {
	case *ast.Literal:
		r.stack.Push(n.Value)
		return r.Result(), nil

	case *ast.Command:
		c, err := r.ctx.Registry.Command(n.Name)
		if err != nil {
			return nil, err
		}
		if err := c.Arity.Check(c.Name, "command", len(n.Args)); err != nil {
			return nil, err
		}
		if c.RunNode != nil {
			err = c.RunNode(r.ctx, r.stack, n)
		} else {
			err = c.Run(r.ctx, r.stack, n.Args)
		}
		if err != nil {
			return nil, err
		}
		return r.Result(), nil

	case *ast.Function:
		f, err := r.ctx.Registry.Function(n.Name)
		if err != nil {
			return nil, err
		}
		if err := f.Arity.Check(f.Name, "function", len(n.Args)); err != nil {
			return nil, err
		}
		if err := f.Run(r, n.Options, n.Args); err != nil {
			return nil, err
		}
		return r.Result(), nil

	case *ast.Pipe:
		res := value.DefaultSuccess
		for _, stage := range n.Stages {
			var err error
			if res, err = r.eval(stage); err != nil {
				return nil, err
			}
		}
		return res, nil

	case *ast.FanOut:
		res := value.DefaultSuccess
		for _, branch := range n.Branches {
			var err error
			if res, err = r.Duplicate().eval(branch); err != nil {
				return nil, err
			}
		}
		return res, nil

	default:
		return nil, fmt.Errorf("engine: unsupported node %T", n)
	}
}
