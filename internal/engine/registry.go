/*
Copyright © 2025 Logicos Software

registry.go holds the command and function tables.
*/
package engine

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"pkipipe/internal/ast"
	"pkipipe/internal/errs"
)

// CommandFunc runs a simple command against a stack with its string
// arguments.
type CommandFunc func(ctx *Context, st *Stack, args []string) error

// FunctionFunc runs a function. It evaluates its own argument nodes and
// pushes exactly one value on r.
type FunctionFunc func(r *Runner, opts []string, args []ast.Node) error

// NodeCommandFunc runs a command that needs its whole invocation, such as
// the quoting of its arguments.
type NodeCommandFunc func(ctx *Context, st *Stack, n *ast.Command) error

// Command is a registered simple command.
type Command struct {
	Name    string
	Usage   string
	Summary string
	Arity   Arity
	Run     CommandFunc
	// RunNode replaces Run when set.
	RunNode NodeCommandFunc
}

// Function is a registered function.
type Function struct {
	Name    string
	Usage   string
	Summary string
	Arity   Arity
	Run     FunctionFunc
}

// Registry holds the command and function tables. It is filled once at
// startup and only read afterwards.
type Registry struct {
	commands  map[string]*Command
	functions map[string]*Function
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]*Command),
		functions: make(map[string]*Function),
	}
}

// RegisterCommand adds a simple command. Registering a name twice is a
// programming error and panics.
func (r *Registry) RegisterCommand(c Command) {
	r.checkFree(c.Name)
	if c.Run == nil && c.RunNode == nil {
		panic(fmt.Sprintf("engine: command %q has no implementation", c.Name))
	}
	r.commands[c.Name] = &c
}

// RegisterFunction adds a function. Registering a name twice panics.
func (r *Registry) RegisterFunction(f Function) {
	r.checkFree(f.Name)
	if f.Run == nil {
		panic(fmt.Sprintf("engine: function %q has no implementation", f.Name))
	}
	r.functions[f.Name] = &f
}

func (r *Registry) checkFree(name string) {
	if name == "" {
		panic("engine: empty registry name")
	}
	if _, dup := r.commands[name]; dup {
		panic(fmt.Sprintf("engine: %q already registered as a command", name))
	}
	if _, dup := r.functions[name]; dup {
		panic(fmt.Sprintf("engine: %q already registered as a function", name))
	}
}

// Command looks up a simple command.
func (r *Registry) Command(name string) (*Command, error) {
	c, ok := r.commands[name]
	if !ok {
		return nil, errs.UnknownCommand(name, suggest(name, r.CommandNames()))
	}
	return c, nil
}

// Function looks up a function.
func (r *Registry) Function(name string) (*Function, error) {
	f, ok := r.functions[name]
	if !ok {
		return nil, errs.UnknownFunction(name, suggest(name, r.FunctionNames()))
	}
	return f, nil
}

// ResolveFunction implements ast.FunctionResolver.
func (r *Registry) ResolveFunction(name string) error {
	_, err := r.Function(name)
	return err
}

// CommandNames returns the command names, sorted.
func (r *Registry) CommandNames() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FunctionNames returns the function names, sorted.
func (r *Registry) FunctionNames() []string {
	names := make([]string, 0, len(r.functions))
	for n := range r.functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Commands returns the registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, n := range r.CommandNames() {
		out = append(out, r.commands[n])
	}
	return out
}

// Functions returns the registered functions sorted by name.
func (r *Registry) Functions() []*Function {
	out := make([]*Function, 0, len(r.functions))
	for _, n := range r.FunctionNames() {
		out = append(out, r.functions[n])
	}
	return out
}

// maxSuggestions caps the "did you mean" list.
const maxSuggestions = 3

// suggest returns registered names close to name: names containing it as
// a fuzzy subsequence, and names within two edits.
func suggest(name string, names []string) []string {
	seen := make(map[string]bool)
	var out []string

	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)
	for _, rk := range ranks {
		if !seen[rk.Target] {
			seen[rk.Target] = true
			out = append(out, rk.Target)
		}
	}
	for _, n := range names {
		if !seen[n] && fuzzy.LevenshteinDistance(name, n) <= 2 {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
