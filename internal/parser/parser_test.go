/*
Copyright © 2025 Logicos Software

parser_test.go contains unit tests for the lexer and parser.
*/
package parser

import (
	"testing"

	"pkipipe/internal/errs"
)

func TestLex(t *testing.T) {
	toks, err := Lex(`read a.crt | seq(1, "x y") , 'q'`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	want := []TokenKind{
		TokenWord, TokenWord, TokenPipe, TokenWord, TokenLParen, TokenNumber,
		TokenComma, TokenQuoted, TokenRParen, TokenComma, TokenQuoted, TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("Lex returned %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d kind = %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexUnterminatedQuote(t *testing.T) {
	_, err := Lex(`print "abc`)
	if errs.KindOf(err) != errs.KindSyntax {
		t.Errorf("Lex error kind = %v, want Syntax", errs.KindOf(err))
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "single quoted literal", raw: `'a\nb'`, want: `a\nb`},
		{name: "empty single quoted", raw: `''`, want: ""},
		{name: "double quoted plain", raw: `"hello"`, want: "hello"},
		{name: "escaped quote", raw: `"say \"hi\""`, want: `say "hi"`},
		{name: "control escapes", raw: `"\b\f\n\r\t"`, want: "\b\f\n\r\t"},
		{name: "backslash", raw: `"a\\b"`, want: `a\b`},
		{name: "unicode escape", raw: `"\u00e9t\u00e9"`, want: "été"},
		{name: "unknown escape", raw: `"\q"`, wantErr: true},
		{name: "short unicode escape", raw: `"\u12"`, wantErr: true},
		{name: "bad hex", raw: `"\uzzzz"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unquote(Token{Kind: TokenQuoted, Text: tt.raw})
			if tt.wantErr {
				if err == nil {
					t.Errorf("Unquote(%s) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unquote(%s) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Unquote(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseShapes(t *testing.T) {
	list, err := Parse(`read a | info, keystore[jks](entry("x", read b)) | .subject.cn`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(list.Exprs) != 2 {
		t.Fatalf("got %d expressions, want 2", len(list.Exprs))
	}
	first := list.Exprs[0]
	if len(first.Elements) != 2 {
		t.Fatalf("first expression has %d elements, want 2", len(first.Elements))
	}
	cmd, ok := first.Elements[0].(*CommandElem)
	if !ok || cmd.Name.Text != "read" || len(cmd.Args) != 1 || cmd.Args[0].Text != "a" {
		t.Errorf("first element = %#v, want command read a", first.Elements[0])
	}

	second := list.Exprs[1]
	fn, ok := second.Elements[0].(*FunctionElem)
	if !ok {
		t.Fatalf("element = %T, want function", second.Elements[0])
	}
	if len(fn.Options) != 1 || fn.Options[0].Text != "jks" {
		t.Errorf("options = %v, want [jks]", fn.Options)
	}
	if len(fn.Args) != 1 {
		t.Errorf("keystore has %d args, want 1", len(fn.Args))
	}
	op, ok := second.Elements[1].(*OperatorElem)
	if !ok || op.Op != "." || len(op.Args) != 1 || op.Args[0].Text != "subject.cn" {
		t.Errorf("operator element = %#v", second.Elements[1])
	}
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		src   string
		op    string
		nArgs int
		first string
	}{
		{src: `=foo`, op: "=", nArgs: 1, first: "foo"},
		{src: `= "a b"`, op: "=", nArgs: 1, first: `"a b"`},
		{src: `!=3`, op: "!=", nArgs: 1, first: "3"},
		{src: `. subject cn`, op: ".", nArgs: 2, first: "subject"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			list, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			op, ok := list.Exprs[0].Elements[0].(*OperatorElem)
			if !ok {
				t.Fatalf("element = %T, want operator", list.Exprs[0].Elements[0])
			}
			if op.Op != tt.op || len(op.Args) != tt.nArgs || op.Args[0].Text != tt.first {
				t.Errorf("got op %q args %v", op.Op, op.Args)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		``,
		`read a |`,
		`seq(1, 2`,
		`(read a`,
		`read a )`,
		`seq(1 2)`,
		`keystore[jks(1)`,
	} {
		t.Run(src, func(t *testing.T) {
			if _, err := Parse(src); errs.KindOf(err) != errs.KindSyntax {
				t.Errorf("Parse(%q) error = %v, want syntax error", src, err)
			}
		})
	}
}
