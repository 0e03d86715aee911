/*
Copyright © 2025 Logicos Software

value.go defines the Value interface, sources and the shared base.
*/

// Package value implements the capability-based value model of the
// pipeline interpreter: the Value interface, source descriptors, lazily
// memoized property maps, scalar and structured kinds, the conversion
// protocol and the static type registry.
//
// All Value implementations are pointer types. Identity comparison of two
// Values is therefore always safe, and is used to short-circuit equality of
// self-referential sequences.
package value

import (
	"fmt"
	"io"
)

// Value is the universal unit the interpreter moves through the stack.
type Value interface {
	// Kind returns the kind tag of the value.
	Kind() Kind
	// Source returns the provenance of the value.
	Source() Source
	// Properties returns the ordered, memoized property map.
	Properties() *Properties
	// Describe returns a one-line human readable description.
	Describe() string
	// Equal compares against another value using the kind's own notion.
	Equal(other Value) bool
	// EqualString compares against raw text.
	EqualString(s string) bool
	// Encode writes the canonical external encoding.
	Encode(w io.Writer) error
}

// Container is implemented by values made of an ordered list of members:
// sequences, certificate chains, stores and key pairs.
type Container interface {
	Value
	Members() []Value
}

// Converter is implemented by kinds that define derived conversions.
// ConvertTo is only consulted after the plain capability check failed.
type Converter interface {
	ConvertTo(target Kind) (Value, bool)
}

// Ordered is implemented by kinds with a natural ordering. The boolean is
// false when other is not comparable with the receiver.
type Ordered interface {
	Compare(other Value) (int, bool)
}

// Source describes where a value came from.
type Source struct {
	Description string
	Path        string
	FileKind    string
	Syntax      string
}

// NewSource returns a source with only a description.
func NewSource(desc string) Source {
	return Source{Description: desc}
}

// FileSource returns a source describing a file read from path.
func FileSource(path, fileKind, syntax string) Source {
	return Source{
		Description: "file " + path,
		Path:        path,
		FileKind:    fileKind,
		Syntax:      syntax,
	}
}

// Derive returns a copy whose description is prefixed with prefix.
func (s Source) Derive(prefix string) Source {
	if s.Description == "" {
		s.Description = prefix
		return s
	}
	s.Description = prefix + " of " + s.Description
	return s
}

// WithTags returns a copy carrying the given file kind and syntax tags.
func (s Source) WithTags(fileKind, syntax string) Source {
	s.FileKind = fileKind
	s.Syntax = syntax
	return s
}

// String returns the description.
func (s Source) String() string {
	return s.Description
}

// Base carries the fields shared by every Value implementation. Concrete
// kinds embed it and implement Properties with Base.Memo.
type Base struct {
	src   Source
	props Lazy[*Properties]
}

// NewBase returns a Base for src.
func NewBase(src Source) Base {
	return Base{src: src}
}

// Source returns the provenance of the value.
func (b *Base) Source() Source {
	return b.src
}

// Memo computes the property map on first use and caches it.
func (b *Base) Memo(build func(p *Properties)) *Properties {
	return b.props.Get(func() *Properties {
		p := NewProperties()
		build(p)
		return p
	})
}

// DefaultDescribe renders "<kind> : <source description>".
func DefaultDescribe(v Value) string {
	return fmt.Sprintf("%s : %s", v.Kind(), v.Source().Description)
}

// Equal compares two values, treating the same instance as equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	return a.Equal(b)
}

// Members returns the members of v when it converts to a sequence.
func Members(v Value) ([]Value, bool) {
	s, ok := As(v, KindSequence)
	if !ok {
		return nil, false
	}
	c, ok := s.(Container)
	if !ok {
		return nil, false
	}
	return c.Members(), true
}
