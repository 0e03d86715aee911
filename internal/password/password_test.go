/*
Copyright © 2025 Logicos Software

password_test.go contains unit tests for password specs.
*/
package password

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pkipipe/internal/errs"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    Spec
		wantErr bool
	}{
		{in: "", want: Prompt},
		{in: "prompt", want: Prompt},
		{in: "PROMPT", want: Prompt},
		{in: "pass:s3cret", want: Spec{Source: SourceLiteral, Value: "s3cret"}},
		{in: "pass:", want: Spec{Source: SourceLiteral}},
		{in: "pass:a:b", want: Spec{Source: SourceLiteral, Value: "a:b"}},
		{in: "env:P12_PASS", want: Spec{Source: SourceEnv, Value: "P12_PASS"}},
		{in: "file:/tmp/pw", want: Spec{Source: SourceFile, Value: "/tmp/pw"}},
		{in: "secret", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpec(tt.in)
			if tt.wantErr {
				if errs.KindOf(err) != errs.KindBadArgument {
					t.Errorf("ParseSpec(%q) error = %v, want BadArgument", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpec(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSpecStringHidesLiteral(t *testing.T) {
	if s := (Spec{Source: SourceLiteral, Value: "hunter2"}).String(); s != "pass:***" {
		t.Errorf("String() = %q", s)
	}
	if s := (Spec{Source: SourceEnv, Value: "X"}).String(); s != "env:X" {
		t.Errorf("String() = %q", s)
	}
}

func TestSupply(t *testing.T) {
	dir := t.TempDir()
	pwFile := filepath.Join(dir, "pw.txt")
	if err := os.WriteFile(pwFile, []byte("from-file\r\nsecond line\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var prompted string
	s := &Supplier{
		Prompt: func(label string) (string, error) {
			prompted = label
			return "typed", nil
		},
		LookupEnv: func(name string) (string, bool) {
			if name == "SET" {
				return "from-env", true
			}
			return "", false
		},
		ReadFile: os.ReadFile,
	}

	tests := []struct {
		name string
		spec Spec
		want string
		kind errs.Kind
	}{
		{name: "literal", spec: Spec{Source: SourceLiteral, Value: "lit"}, want: "lit"},
		{name: "env", spec: Spec{Source: SourceEnv, Value: "SET"}, want: "from-env"},
		{name: "env missing", spec: Spec{Source: SourceEnv, Value: "UNSET"}, kind: errs.KindExternal},
		{name: "file first line", spec: Spec{Source: SourceFile, Value: pwFile}, want: "from-file"},
		{name: "file missing", spec: Spec{Source: SourceFile, Value: filepath.Join(dir, "nope")}, kind: errs.KindExternal},
		{name: "prompt", spec: Prompt.WithLabel("Password for a.p12"), want: "typed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Supply(tt.spec)
			if tt.kind != errs.KindUnknown {
				if errs.KindOf(err) != tt.kind {
					t.Errorf("Supply error = %v, want %s", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Supply failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Supply = %q, want %q", got, tt.want)
			}
		})
	}
	if prompted != "Password for a.p12: " {
		t.Errorf("prompt label = %q", prompted)
	}
}

func TestSupplyRejectsEmptyPrompt(t *testing.T) {
	s := &Supplier{Prompt: func(string) (string, error) { return "", nil }}
	if _, err := s.Supply(Prompt); errs.KindOf(err) != errs.KindExternal {
		t.Errorf("empty prompt error = %v, want External", err)
	}

	s.Prompt = func(string) (string, error) { return "", errors.New("no tty") }
	_, err := s.Supply(Prompt)
	if err == nil || !errors.Is(err, errs.Sentinel(errs.KindExternal)) {
		t.Errorf("prompt failure = %v, want External", err)
	}
}
