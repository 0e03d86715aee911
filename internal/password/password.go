/*
Copyright © 2025 Logicos Software

Package password resolves password specifications to passwords.

A specification names where a password comes from:
  - prompt: ask on the terminal without echo
  - pass:<secret>: the literal text after the colon
  - env:<VAR>: the value of an environment variable
  - file:<path>: the first line of a file
*/
package password

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"pkipipe/internal/errs"
)

// Source identifies where a password is taken from.
type Source int

const (
	SourcePrompt Source = iota
	SourceLiteral
	SourceEnv
	SourceFile
)

var sourcePrefixes = map[Source]string{
	SourceLiteral: "pass:",
	SourceEnv:     "env:",
	SourceFile:    "file:",
}

// Spec is a parsed password specification.
type Spec struct {
	Source Source
	// Value is the literal, the variable name or the file path.
	Value string
	// Label is shown when prompting.
	Label string
}

// Prompt is the interactive specification.
var Prompt = Spec{Source: SourcePrompt}

// ParseSpec parses "prompt", "pass:<s>", "env:<VAR>" or "file:<path>".
// The empty string means prompt.
func ParseSpec(s string) (Spec, error) {
	if s == "" || strings.EqualFold(s, "prompt") {
		return Prompt, nil
	}
	for src, prefix := range sourcePrefixes {
		if strings.HasPrefix(s, prefix) {
			return Spec{Source: src, Value: s[len(prefix):]}, nil
		}
	}
	e := errs.BadArgument("invalid password specification %q", s)
	e.Hint = "Use prompt, pass:<secret>, env:<VAR> or file:<path>."
	return Spec{}, e
}

// WithLabel returns a copy of s prompting with label.
func (s Spec) WithLabel(label string) Spec {
	s.Label = label
	return s
}

// String renders the spec without revealing literal passwords.
func (s Spec) String() string {
	switch s.Source {
	case SourceLiteral:
		return "pass:***"
	case SourcePrompt:
		return "prompt"
	default:
		return sourcePrefixes[s.Source] + s.Value
	}
}

// Supplier resolves specs. The zero value is not usable; call NewSupplier.
type Supplier struct {
	// Prompt asks the user for a hidden line of input.
	Prompt func(label string) (string, error)
	// LookupEnv reads an environment variable.
	LookupEnv func(name string) (string, bool)
	// ReadFile reads a password file.
	ReadFile func(path string) ([]byte, error)
}

// NewSupplier returns a supplier bound to the terminal, the process
// environment and the OS filesystem.
func NewSupplier() *Supplier {
	return &Supplier{
		Prompt:    PromptHidden,
		LookupEnv: os.LookupEnv,
		ReadFile:  os.ReadFile,
	}
}

// Supply returns the password named by spec.
func (s *Supplier) Supply(spec Spec) (string, error) {
	switch spec.Source {
	case SourceLiteral:
		return spec.Value, nil

	case SourceEnv:
		v, ok := s.LookupEnv(spec.Value)
		if !ok {
			e := errs.External(fmt.Sprintf("environment variable %s is not set", spec.Value), nil)
			e.Hint = "Export the variable or choose another password source."
			return "", e
		}
		return v, nil

	case SourceFile:
		data, err := s.ReadFile(spec.Value)
		if err != nil {
			return "", errs.External("cannot read password file "+spec.Value, err)
		}
		return firstLine(data), nil

	default:
		label := spec.Label
		if label == "" {
			label = "Password"
		}
		p, err := s.Prompt(label + ": ")
		if err != nil {
			return "", errs.External("cannot read password", err)
		}
		if p == "" {
			e := errs.External("empty password not allowed", nil)
			e.Hint = "Use pass: with an explicit value to set an empty password non-interactively."
			return "", e
		}
		return p, nil
	}
}

func firstLine(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if sc.Scan() {
		return strings.TrimRight(sc.Text(), "\r")
	}
	return ""
}

// PromptHidden prompts on stderr and reads a line without echo when stdin
// is a terminal. Piped input is read as a plain line.
func PromptHidden(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	var s string
	_, err := fmt.Fscanln(os.Stdin, &s)
	return strings.TrimSpace(s), err
}
