/*
Copyright © 2025 Logicos Software

stack.go implements the value stack.
*/
package engine

import (
	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

// Stack is the last-in-first-out value stack owned by one Runner.
type Stack struct {
	items []value.Value
}

// NewStack returns a stack holding vals, bottom first.
func NewStack(vals ...value.Value) *Stack {
	s := &Stack{}
	s.items = append(s.items, vals...)
	return s
}

// Push adds v on top.
func (s *Stack) Push(v value.Value) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top value. op names the operation for the
// underflow error.
func (s *Stack) Pop(op string) (value.Value, error) {
	if len(s.items) == 0 {
		return nil, errs.StackUnderflow(op)
	}
	top := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return top, nil
}

// Peek returns the top value without removing it.
func (s *Stack) Peek(op string) (value.Value, error) {
	if len(s.items) == 0 {
		return nil, errs.StackUnderflow(op)
	}
	return s.items[len(s.items)-1], nil
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return len(s.items)
}

// Values returns a copy of the stack contents, bottom first.
func (s *Stack) Values() []value.Value {
	out := make([]value.Value, len(s.items))
	copy(out, s.items)
	return out
}

// Duplicate returns a stack with the same value references and its own
// storage. Pushes and pops on either copy never affect the other.
func (s *Stack) Duplicate() *Stack {
	return NewStack(s.items...)
}
