/*
Copyright © 2025 Logicos Software

scalar.go implements strings, numbers, booleans, dates and null.
*/
package value

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// String is a text scalar.
type String struct {
	Base
	text string
}

// NewString returns a string value.
func NewString(src Source, text string) *String {
	return &String{Base: NewBase(src), text: text}
}

// Text returns the string contents.
func (s *String) Text() string { return s.text }

func (s *String) Kind() Kind { return KindString }

func (s *String) Describe() string { return strconv.Quote(s.text) }

func (s *String) Properties() *Properties {
	return s.Memo(func(p *Properties) {
		p.Set("length", NewInt(s.Source().Derive("length"), int64(len(s.text))))
	})
}

func (s *String) Equal(other Value) bool {
	o, ok := other.(*String)
	return ok && o.text == s.text
}

func (s *String) EqualString(text string) bool { return s.text == text }

func (s *String) Encode(w io.Writer) error {
	_, err := io.WriteString(w, s.text)
	return err
}

func (s *String) Compare(other Value) (int, bool) {
	o, ok := other.(*String)
	if !ok {
		return 0, false
	}
	return strings.Compare(s.text, o.text), true
}

// Number is an arbitrary-precision decimal scalar. The original literal text
// is kept so that string comparison can match it exactly.
type Number struct {
	Base
	d    decimal.Decimal
	text string
}

// NewNumber returns a number value.
func NewNumber(src Source, d decimal.Decimal) *Number {
	return &Number{Base: NewBase(src), d: d, text: d.String()}
}

// NewInt returns an integral number value.
func NewInt(src Source, n int64) *Number {
	return NewNumber(src, decimal.NewFromInt(n))
}

// ParseNumber parses a decimal literal.
func ParseNumber(src Source, text string) (*Number, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, err
	}
	return &Number{Base: NewBase(src), d: d, text: text}, nil
}

// Decimal returns the numeric value.
func (n *Number) Decimal() decimal.Decimal { return n.d }

// Int returns the value as an int when it is integral and fits.
func (n *Number) Int() (int, bool) {
	if !n.d.IsInteger() {
		return 0, false
	}
	i := n.d.IntPart()
	if int64(int(i)) != i {
		return 0, false
	}
	return int(i), true
}

func (n *Number) Kind() Kind { return KindNumber }

func (n *Number) Describe() string { return n.text }

func (n *Number) Properties() *Properties {
	return n.Memo(func(p *Properties) {
		p.Set("integer", NewBoolean(n.Source().Derive("integer"), n.d.IsInteger()))
	})
}

func (n *Number) Equal(other Value) bool {
	o, ok := other.(*Number)
	return ok && n.d.Equal(o.d)
}

// EqualString accepts the literal text or any text parsing to the same number.
func (n *Number) EqualString(s string) bool {
	if s == n.text {
		return true
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil && d.Equal(n.d)
}

func (n *Number) Encode(w io.Writer) error {
	_, err := io.WriteString(w, n.text)
	return err
}

func (n *Number) Compare(other Value) (int, bool) {
	o, ok := other.(*Number)
	if !ok {
		return 0, false
	}
	return n.d.Cmp(o.d), true
}

// Boolean is a truth value.
type Boolean struct {
	Base
	b bool
}

// NewBoolean returns a boolean value.
func NewBoolean(src Source, b bool) *Boolean {
	return &Boolean{Base: NewBase(src), b: b}
}

// Bool returns the truth value.
func (b *Boolean) Bool() bool { return b.b }

func (b *Boolean) Kind() Kind { return KindBoolean }

func (b *Boolean) Describe() string { return strconv.FormatBool(b.b) }

func (b *Boolean) Properties() *Properties {
	return b.Memo(func(*Properties) {})
}

func (b *Boolean) Equal(other Value) bool {
	o, ok := other.(*Boolean)
	return ok && o.b == b.b
}

// EqualString accepts "true" and "false" in any letter case.
func (b *Boolean) EqualString(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), strconv.FormatBool(b.b))
}

func (b *Boolean) Encode(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatBool(b.b))
	return err
}

func (b *Boolean) Compare(other Value) (int, bool) {
	o, ok := other.(*Boolean)
	if !ok {
		return 0, false
	}
	switch {
	case b.b == o.b:
		return 0, true
	case !b.b:
		return -1, true
	default:
		return 1, true
	}
}

// Date is a point in time, rendered in RFC 3339.
type Date struct {
	Base
	t time.Time
}

// NewDate returns a date value.
func NewDate(src Source, t time.Time) *Date {
	return &Date{Base: NewBase(src), t: t}
}

// Time returns the point in time.
func (d *Date) Time() time.Time { return d.t }

func (d *Date) Kind() Kind { return KindDate }

func (d *Date) Describe() string { return d.t.UTC().Format(time.RFC3339) }

func (d *Date) Properties() *Properties {
	return d.Memo(func(p *Properties) {
		p.Set("unix", NewInt(d.Source().Derive("unix"), d.t.Unix()))
		p.Set("expired", NewBoolean(d.Source().Derive("expired"), d.t.Before(time.Now())))
	})
}

func (d *Date) Equal(other Value) bool {
	o, ok := other.(*Date)
	return ok && o.t.Equal(d.t)
}

// EqualString accepts RFC 3339 timestamps and plain dates (2006-01-02).
func (d *Date) EqualString(s string) bool {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Equal(d.t)
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		y1, m1, d1 := t.Date()
		y2, m2, d2 := d.t.UTC().Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return false
}

func (d *Date) Encode(w io.Writer) error {
	_, err := io.WriteString(w, d.Describe())
	return err
}

func (d *Date) Compare(other Value) (int, bool) {
	o, ok := other.(*Date)
	if !ok {
		return 0, false
	}
	return d.t.Compare(o.t), true
}

// Null is the absent value.
type Null struct {
	Base
}

// NewNull returns a null value.
func NewNull(src Source) *Null {
	return &Null{Base: NewBase(src)}
}

func (n *Null) Kind() Kind { return KindNull }

func (n *Null) Describe() string { return "null" }

func (n *Null) Properties() *Properties {
	return n.Memo(func(*Properties) {})
}

func (n *Null) Equal(other Value) bool {
	_, ok := other.(*Null)
	return ok
}

func (n *Null) EqualString(s string) bool {
	return s == "" || strings.EqualFold(s, "null")
}

func (n *Null) Encode(w io.Writer) error {
	_, err := io.WriteString(w, "null")
	return err
}

// Text returns the textual form of a scalar value, or false when v is not
// a scalar.
func Text(v Value) (string, bool) {
	switch s := v.(type) {
	case *String:
		return s.text, true
	case *Number:
		return s.text, true
	case *Boolean, *Date, *Null:
		return v.Describe(), true
	}
	return "", false
}
