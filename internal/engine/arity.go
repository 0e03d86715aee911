/*
Copyright © 2025 Logicos Software

arity.go bounds the argument counts of commands and functions.
*/
package engine

import (
	"fmt"

	"pkipipe/internal/errs"
)

// Arity bounds the number of arguments an entry accepts. Max < 0 means
// unbounded.
type Arity struct {
	Min int
	Max int
}

// Exactly accepts n arguments.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// Between accepts min to max arguments inclusive.
func Between(min, max int) Arity { return Arity{Min: min, Max: max} }

// AtLeast accepts n or more arguments.
func AtLeast(n int) Arity { return Arity{Min: n, Max: -1} }

// String renders the bound, e.g. "exactly 1" or "at least 2".
func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return fmt.Sprintf("at least %d", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("exactly %d", a.Min)
	default:
		return fmt.Sprintf("between %d and %d", a.Min, a.Max)
	}
}

// Check returns a BadArgument error when n violates the bound. kind is
// "command" or "function".
func (a Arity) Check(name, kind string, n int) error {
	if n >= a.Min && (a.Max < 0 || n <= a.Max) {
		return nil
	}
	noun := "arguments"
	if a.Min == 1 && a.Max == 1 {
		noun = "argument"
	}
	return errs.BadArgument("%s %q requires %s %s, got %d", kind, name, a, noun, n)
}
