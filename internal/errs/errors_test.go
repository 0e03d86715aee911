/*
Copyright © 2025 Logicos Software

errors_test.go contains unit tests for error classification and handling.
*/
package errs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		wantMsg  string
		wantHint string
	}{
		{
			name:    "simple error",
			err:     &Error{Kind: KindBadArgument, Message: "test error"},
			wantMsg: "test error",
		},
		{
			name:    "error with cause",
			err:     External("parse failed", errors.New("underlying error")),
			wantMsg: "parse failed: underlying error",
		},
		{
			name:     "error with hint",
			err:      DuplicateEntry("server"),
			wantMsg:  `duplicate store entry "server"`,
			wantHint: "aliases must be unique",
		},
		{
			name:     "unknown command suggestions",
			err:      UnknownCommand("inf", []string{"info"}),
			wantMsg:  `unknown command "inf"`,
			wantHint: "Did you mean info?",
		},
		{
			name:     "unknown command without suggestions",
			err:      UnknownCommand("zzz", nil),
			wantMsg:  `unknown command "zzz"`,
			wantHint: "pkipipe commands",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if tt.wantHint != "" {
				full := tt.err.FullError()
				if !strings.Contains(full, tt.wantHint) {
					t.Errorf("FullError() = %q, want to contain %q", full, tt.wantHint)
				}
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := External("wrapper", cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("reading: %w", InvalidTarget("info", "nothing"))
	if got := KindOf(wrapped); got != KindInvalidTarget {
		t.Errorf("KindOf(wrapped) = %s, want InvalidTarget", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %s, want Unknown", got)
	}
	if !errors.Is(wrapped, Sentinel(KindInvalidTarget)) {
		t.Error("errors.Is did not match the sentinel")
	}
	if errors.Is(wrapped, Sentinel(KindBadArgument)) {
		t.Error("errors.Is matched a different kind")
	}
}

func TestFullErrorChain(t *testing.T) {
	inner := BadArgument("bad alias")
	inner.Hint = "inner hint"
	outer := External("keystore failed", fmt.Errorf("entry 2: %w", inner))

	full := outer.FullError()
	for _, want := range []string{
		"keystore failed",
		"caused by *fmt.wrapError: entry 2",
		"caused by BadArgument: bad alias",
		"Hint: inner hint",
	} {
		if !strings.Contains(full, want) {
			t.Errorf("FullError() = %q, want to contain %q", full, want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		wantKind Kind
		wantHint string
	}{
		{
			name:     "slot empty 6a82",
			input:    errors.New("smart card error 6a82: data object or application not found"),
			wantKind: KindExternal,
			wantHint: "No certificate exists in this slot",
		},
		{
			name:     "no yubikey",
			input:    errors.New("no yubikey reader found"),
			wantKind: KindExternal,
			wantHint: "plugged in",
		},
		{
			name:     "file not found",
			input:    fmt.Errorf("open a.pem: %w", os.ErrNotExist),
			wantKind: KindExternal,
			wantHint: "file path is correct",
		},
		{
			name:     "permission denied",
			input:    errors.New("permission denied"),
			wantKind: KindExternal,
			wantHint: "permissions",
		},
		{
			name:     "wrong container password",
			input:    errors.New("pkcs12: decryption password incorrect"),
			wantKind: KindExternal,
			wantHint: "--password",
		},
		{
			name:     "already structured",
			input:    StackUnderflow("info"),
			wantKind: KindStackUnderflow,
			wantHint: "read cert.pem | info",
		},
		{
			name:     "unknown error",
			input:    errors.New("something else"),
			wantKind: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if tt.wantHint != "" && !strings.Contains(got.Hint, tt.wantHint) {
				t.Errorf("Hint = %q, want to contain %q", got.Hint, tt.wantHint)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) != nil")
	}
}

func TestKindString(t *testing.T) {
	for k := KindUnknown; k <= KindExternal; k++ {
		if k.String() == "" {
			t.Errorf("Kind(%d) has no name", k)
		}
	}
	if KindExternal.String() != "ExternalFailure" {
		t.Errorf("KindExternal = %q", KindExternal.String())
	}
}
