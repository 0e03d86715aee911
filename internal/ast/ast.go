/*
Copyright © 2025 Logicos Software

ast.go defines the expression tree nodes.
*/

// Package ast defines the expression tree evaluated by the engine and the
// builder that produces it from a parse tree.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"pkipipe/internal/value"
)

// Node is one of *Literal, *Command, *Function, *Pipe or *FanOut. Nodes are
// immutable once built.
type Node interface {
	fmt.Stringer
	node()
}

// Literal pushes a fully evaluated scalar value.
type Literal struct {
	Value value.Value
}

// Command invokes a registered simple command with string arguments.
type Command struct {
	Name string
	Args []string
	// Quoted marks the arguments written as quoted words. It is either nil
	// or as long as Args.
	Quoted []bool
	Pos    int
}

// IsQuoted reports whether argument i was quoted in the source.
func (c *Command) IsQuoted(i int) bool {
	return i < len(c.Quoted) && c.Quoted[i]
}

// Function invokes a registered function with nested argument nodes.
type Function struct {
	Name    string
	Options []string
	Args    []Node
	Pos     int
}

// Pipe evaluates its stages in order against the same stack.
type Pipe struct {
	Stages []Node
}

// FanOut evaluates every branch against an independent copy of the stack.
type FanOut struct {
	Branches []Node
}

func (*Literal) node()  {}
func (*Command) node()  {}
func (*Function) node() {}
func (*Pipe) node()     {}
func (*FanOut) node()   {}

func (n *Literal) String() string {
	if s, ok := n.Value.(*value.String); ok {
		return "Literal(" + strconv.Quote(s.Text()) + ")"
	}
	return "Literal(" + n.Value.Describe() + ")"
}

func (n *Command) String() string {
	return fmt.Sprintf("Command(%s,[%s])", n.Name, strings.Join(n.Args, ", "))
}

func (n *Function) String() string {
	name := n.Name
	if len(n.Options) > 0 {
		name += "[" + strings.Join(n.Options, ", ") + "]"
	}
	return fmt.Sprintf("Function(%s,[%s])", name, joinNodes(n.Args))
}

func (n *Pipe) String() string {
	return "Pipe[" + joinNodes(n.Stages) + "]"
}

func (n *FanOut) String() string {
	return "FanOut[" + joinNodes(n.Branches) + "]"
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
