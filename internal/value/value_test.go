/*
Copyright © 2025 Logicos Software

value_test.go contains unit tests for the value model.
*/
package value

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func src(s string) Source { return NewSource(s) }

func TestAsSequenceDisambiguation(t *testing.T) {
	str := NewString(src("a"), "a")
	str2 := NewString(src("b"), "b")
	num := NewInt(src("n"), 7)

	tests := []struct {
		name   string
		seq    *Sequence
		target Kind
		want   Value
		wantOK bool
	}{
		{
			name:   "exactly one exact member",
			seq:    NewSequence(src("s"), str, num),
			target: KindString,
			want:   str,
			wantOK: true,
		},
		{
			name:   "two exact members is ambiguous",
			seq:    NewSequence(src("s"), str, str2),
			target: KindString,
			wantOK: false,
		},
		{
			name:   "zero candidates",
			seq:    NewSequence(src("s"), num),
			target: KindString,
			wantOK: false,
		},
		{
			name:   "one recursive candidate",
			seq:    NewSequence(src("s"), NewSequence(src("inner"), str), num),
			target: KindString,
			want:   str,
			wantOK: true,
		},
		{
			name:   "two recursive candidates",
			seq:    NewSequence(src("s"), NewSequence(src("x"), str), NewSequence(src("y"), str2)),
			target: KindString,
			wantOK: false,
		},
		{
			name:   "sequence satisfies sequence",
			seq:    NewSequence(src("s"), str, str2),
			target: KindSequence,
			wantOK: true,
		},
		{
			name:   "abstract scalar capability picks the single scalar",
			seq:    NewSequence(src("s"), str, NewSequence(src("inner"))),
			target: KindScalar,
			want:   str,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := As(tt.seq, tt.target)
			if ok != tt.wantOK {
				t.Fatalf("As() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.want != nil && got != tt.want {
				t.Errorf("As() = %v, want %v", got.Describe(), tt.want.Describe())
			}
		})
	}
}

func TestAsSelfReferentialSequenceTerminates(t *testing.T) {
	s := NewSequence(src("loop"))
	s.Append(s)
	if _, ok := As(s, KindString); ok {
		t.Error("As() on a self-referential sequence without strings should fail")
	}
	s.Append(NewString(src("x"), "x"))
	if got, ok := As(s, KindString); !ok || !got.EqualString("x") {
		t.Errorf("As() = %v, %v; want the single string", got, ok)
	}
}

func TestAsPlainKindCheck(t *testing.T) {
	n := NewInt(src("n"), 1)
	if got, ok := As(n, KindNumber); !ok || got != n {
		t.Error("a value must convert to its own kind")
	}
	if _, ok := As(n, KindObject); !ok {
		t.Error("every value converts to object")
	}
	if _, ok := As(n, KindString); ok {
		t.Error("a number must not convert to string")
	}
	if _, ok := As(n, KindSequence); ok {
		t.Error("a scalar must not convert to sequence")
	}
}

func TestNumberEquality(t *testing.T) {
	n, err := ParseNumber(src("lit"), "1.50")
	if err != nil {
		t.Fatalf("ParseNumber failed: %v", err)
	}
	tests := []struct {
		input string
		want  bool
	}{
		{"1.50", true},
		{"1.5", true},
		{" 1.500 ", true},
		{"2", false},
		{"abc", false},
	}
	for _, tt := range tests {
		if got := n.EqualString(tt.input); got != tt.want {
			t.Errorf("EqualString(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if !n.Equal(NewNumber(src("x"), decimal.RequireFromString("1.5"))) {
		t.Error("numbers must compare numerically")
	}
	if n.Equal(NewString(src("x"), "1.50")) {
		t.Error("a number must not equal a string value")
	}
}

func TestBooleanEqualString(t *testing.T) {
	b := NewBoolean(src("b"), true)
	for _, s := range []string{"true", "TRUE", "True"} {
		if !b.EqualString(s) {
			t.Errorf("EqualString(%q) = false, want true", s)
		}
	}
	if b.EqualString("false") || b.EqualString("yes") {
		t.Error("true must not equal false or yes")
	}
}

func TestSequenceEquality(t *testing.T) {
	a := NewSequence(src("a"), NewString(src("x"), "x"), NewInt(src("1"), 1))
	b := NewSequence(src("b"), NewString(src("y"), "x"), NewInt(src("2"), 1))
	c := NewSequence(src("c"), NewString(src("y"), "x"))
	if !a.Equal(b) {
		t.Error("element-wise equal sequences must be equal")
	}
	if a.Equal(c) {
		t.Error("sequences of different length must differ")
	}
	if NewRecord(src("r")).EqualString("") {
		t.Error("records are never equal to a string")
	}
}

func TestSequenceEqualityCycles(t *testing.T) {
	a := NewSequence(src("a"), NewString(src("x"), "x"))
	a.Append(a)
	b := NewSequence(src("b"), NewString(src("y"), "x"))
	b.Append(b)
	if !a.Equal(b) {
		t.Error("two self-containing sequences of equal shape must be equal")
	}

	c := NewSequence(src("c"), NewString(src("z"), "z"))
	c.Append(c)
	if a.Equal(c) {
		t.Error("self-containing sequences with different elements must differ")
	}

	p := NewSequence(src("p"))
	q := NewSequence(src("q"))
	p.Append(q)
	q.Append(p)
	if !p.Equal(q) || !Equal(q, p) {
		t.Error("mutually containing sequences must compare without looping")
	}
}

func TestPropertiesMemoizedAndTotal(t *testing.T) {
	s := NewString(src("s"), "hello")
	p1 := s.Properties()
	p2 := s.Properties()
	if p1 != p2 {
		t.Error("Properties() must be memoized per instance")
	}
	if v, ok := p1.Get("length"); !ok || !v.EqualString("5") {
		t.Errorf("length = %v, want 5", v)
	}

	p := NewProperties()
	p.Try("broken", src("x"), func() (Value, error) { return nil, errors.New("boom") })
	v, ok := p.Get("broken")
	if !ok {
		t.Fatal("failed property must still be present")
	}
	r, ok := v.(*Result)
	if !ok || r.OK() {
		t.Fatalf("failed property = %v, want failure result", v.Describe())
	}
}

func TestPropertiesLookupPath(t *testing.T) {
	inner := NewRecord(src("inner")).Put("CN", NewString(src("cn"), "example"))
	outer := NewRecord(src("outer")).Put("subject", inner)
	v, ok := outer.Properties().Lookup("subject.cn")
	if !ok || !v.EqualString("example") {
		t.Errorf("Lookup(subject.cn) = %v, %v", v, ok)
	}
	if _, ok := outer.Properties().Lookup("subject.missing"); ok {
		t.Error("missing path must not resolve")
	}
}

func TestLookupType(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"certificate", KindCertificate},
		{"CERT", KindCertificate},
		{"certificate-chain", KindCertificateChain},
		{"Certificate_Chain", KindCertificateChain},
		{"certificatechain", KindCertificateChain},
		{"key-pair", KindKeyPair},
		{"keypair", KindKeyPair},
		{"private_key", KindPrivateKey},
		{"DN", KindDistinguishedName},
		{"any", KindObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupType(tt.name)
			if !ok {
				t.Fatalf("LookupType(%q) failed", tt.name)
			}
			if got.Kind != tt.want {
				t.Errorf("LookupType(%q) = %s, want %s", tt.name, got.Kind, tt.want)
			}
		})
	}
	if _, ok := LookupType("no-such-type"); ok {
		t.Error("unknown names must not resolve")
	}
}

func TestSourceDerive(t *testing.T) {
	s := FileSource("a.crt", "pem", "pem")
	d := s.Derive("each")
	if d.Description != "each of file a.crt" {
		t.Errorf("Derive() = %q", d.Description)
	}
	if s.Description != "file a.crt" {
		t.Error("Derive must not modify the original")
	}
	if d.Path != "a.crt" || d.FileKind != "pem" {
		t.Error("Derive must keep the tags")
	}
}

func TestLazy(t *testing.T) {
	var l Lazy[int]
	calls := 0
	f := func() int { calls++; return 42 }
	if l.Get(f) != 42 || l.Get(f) != 42 {
		t.Error("Get() returned the wrong value")
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}
