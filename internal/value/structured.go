/*
Copyright © 2025 Logicos Software

structured.go implements sequences, records and results.
*/
package value

import (
	"fmt"
	"io"
	"strings"
)

// Sequence is an ordered list of values.
type Sequence struct {
	Base
	elems []Value
}

// NewSequence returns a sequence of elems. The slice is copied.
func NewSequence(src Source, elems ...Value) *Sequence {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &Sequence{Base: NewBase(src), elems: cp}
}

// Append adds v to the end of the sequence. Sequences are built before they
// are pushed; the engine never mutates a value on the stack.
func (s *Sequence) Append(v Value) {
	s.elems = append(s.elems, v)
}

// Members returns the elements.
func (s *Sequence) Members() []Value { return s.elems }

// Len returns the number of elements.
func (s *Sequence) Len() int { return len(s.elems) }

func (s *Sequence) Kind() Kind { return KindSequence }

func (s *Sequence) Describe() string {
	return fmt.Sprintf("sequence[%d] : %s", len(s.elems), s.Source().Description)
}

func (s *Sequence) Properties() *Properties {
	return s.Memo(func(p *Properties) {
		p.Set("size", NewInt(s.Source().Derive("size"), int64(len(s.elems))))
		for i, e := range s.elems {
			if e == Value(s) {
				continue
			}
			p.Set(fmt.Sprint(i), e)
		}
	})
}

// Equal compares element-wise, in order, requiring equal length. Pairs of
// sequences already under comparison count as equal, so cyclic sequences
// terminate.
func (s *Sequence) Equal(other Value) bool {
	o, ok := other.(*Sequence)
	if !ok {
		return false
	}
	return s.equal(o, make(map[[2]*Sequence]bool))
}

func (s *Sequence) equal(o *Sequence, seen map[[2]*Sequence]bool) bool {
	if s == o {
		return true
	}
	if len(o.elems) != len(s.elems) {
		return false
	}
	pair := [2]*Sequence{s, o}
	if seen[pair] {
		return true
	}
	seen[pair] = true
	for i, e := range s.elems {
		a, aok := e.(*Sequence)
		b, bok := o.elems[i].(*Sequence)
		if aok && bok {
			if !a.equal(b, seen) {
				return false
			}
			continue
		}
		if !Equal(e, o.elems[i]) {
			return false
		}
	}
	return true
}

// EqualString matches a single-element sequence against its element.
func (s *Sequence) EqualString(text string) bool {
	return len(s.elems) == 1 && s.elems[0].EqualString(text)
}

// Encode writes every element in order; scalars are terminated by a newline.
func (s *Sequence) Encode(w io.Writer) error {
	for _, e := range s.elems {
		if e == Value(s) {
			continue
		}
		if err := e.Encode(w); err != nil {
			return err
		}
		if IsScalar(e.Kind()) || e.Kind() == KindResult || e.Kind() == KindRecord {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Record is an ordered, string-keyed collection of values.
type Record struct {
	Base
	fields *Properties
}

// NewRecord returns an empty record.
func NewRecord(src Source) *Record {
	return &Record{Base: NewBase(src), fields: NewProperties()}
}

// Put adds a field. Records are built before they are pushed.
func (r *Record) Put(key string, v Value) *Record {
	r.fields.Set(key, v)
	return r
}

// Field returns the value stored under key.
func (r *Record) Field(key string) (Value, bool) {
	return r.fields.Get(key)
}

// Fields returns the field names in order.
func (r *Record) Fields() []string {
	return r.fields.Keys()
}

func (r *Record) Kind() Kind { return KindRecord }

func (r *Record) Describe() string {
	return fmt.Sprintf("record{%s} : %s", strings.Join(r.fields.Keys(), ", "), r.Source().Description)
}

// Properties of a record are its fields.
func (r *Record) Properties() *Properties {
	return r.fields
}

func (r *Record) Equal(other Value) bool {
	o, ok := other.(*Record)
	if !ok || o.fields.Len() != r.fields.Len() {
		return false
	}
	for _, k := range r.fields.Keys() {
		a, _ := r.fields.Get(k)
		b, ok := o.fields.Get(k)
		if !ok || !Equal(a, b) {
			return false
		}
	}
	return true
}

// EqualString is always false: records are not comparable to text.
func (r *Record) EqualString(string) bool { return false }

func (r *Record) Encode(w io.Writer) error {
	var err error
	r.fields.Each(func(k string, v Value) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%s=%s\n", k, v.Describe())
	})
	return err
}

// Result records the outcome of an operation: success with an optional
// value, or failure with an error.
type Result struct {
	Base
	ok  bool
	val Value
	err error
}

// DefaultSuccess is the marker reported when an evaluation leaves no Result.
var DefaultSuccess = &Result{Base: NewBase(NewSource("default")), ok: true}

// NewSuccess returns a successful result wrapping v (which may be nil).
func NewSuccess(src Source, v Value) *Result {
	return &Result{Base: NewBase(src), ok: true, val: v}
}

// NewFailure returns a failed result carrying err.
func NewFailure(src Source, err error) *Result {
	return &Result{Base: NewBase(src), err: err}
}

// OK reports success.
func (r *Result) OK() bool { return r.ok }

// Value returns the wrapped value of a success, if any.
func (r *Result) Value() Value { return r.val }

// Err returns the failure cause.
func (r *Result) Err() error { return r.err }

func (r *Result) Kind() Kind { return KindResult }

func (r *Result) status() string {
	if r.ok {
		return "success"
	}
	return "failure"
}

func (r *Result) Describe() string {
	if r.ok {
		if r.val != nil {
			return "success : " + r.val.Describe()
		}
		return "success : " + r.Source().Description
	}
	return fmt.Sprintf("failure : %s (%v)", r.Source().Description, r.err)
}

func (r *Result) Properties() *Properties {
	return r.Memo(func(p *Properties) {
		p.Set("status", NewString(r.Source().Derive("status"), r.status()))
		if r.val != nil {
			p.Set("value", r.val)
		}
		if r.err != nil {
			p.Set("error", NewString(r.Source().Derive("error"), r.err.Error()))
		}
	})
}

func (r *Result) Equal(other Value) bool {
	o, ok := other.(*Result)
	if !ok || o.ok != r.ok {
		return false
	}
	if r.ok {
		return Equal(r.val, o.val)
	}
	return r.err.Error() == o.err.Error()
}

// EqualString matches "success" or "failure".
func (r *Result) EqualString(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), r.status())
}

func (r *Result) Encode(w io.Writer) error {
	if r.ok {
		_, err := io.WriteString(w, "success")
		return err
	}
	_, err := fmt.Fprintf(w, "failure: %v", r.err)
	return err
}
