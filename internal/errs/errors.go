/*
Copyright © 2025 Logicos Software

Package errs implements the structured failure taxonomy of pkipipe.

Every failure raised while building or evaluating an expression is an
*Error carrying:
  - a Kind (unknown command, bad argument, stack underflow, ...)
  - a user-facing message
  - an optional troubleshooting hint
  - an optional cause, preserved for errors.Is/errors.As and for the
    cause-chain printout of the CLI
*/
package errs

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown for unclassified errors.
	KindUnknown Kind = iota
	// KindSyntax for malformed expression text.
	KindSyntax
	// KindUnknownCommand for a simple command name missing from the registry.
	KindUnknownCommand
	// KindUnknownFunction for a function name missing from the registry.
	KindUnknownFunction
	// KindBadArgument for arity or argument shape violations.
	KindBadArgument
	// KindInvalidTarget for an operation applied to a value that cannot support it.
	KindInvalidTarget
	// KindTypeConversion for a failed explicit conversion.
	KindTypeConversion
	// KindStackUnderflow for pop/peek on an empty stack.
	KindStackUnderflow
	// KindDuplicateEntry for inserting a store entry whose alias already exists.
	KindDuplicateEntry
	// KindExternal for failures of a collaborator (parse, password, I/O, crypto).
	KindExternal
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "Syntax"
	case KindUnknownCommand:
		return "UnknownCommand"
	case KindUnknownFunction:
		return "UnknownFunction"
	case KindBadArgument:
		return "BadArgument"
	case KindInvalidTarget:
		return "InvalidTarget"
	case KindTypeConversion:
		return "TypeConversion"
	case KindStackUnderflow:
		return "StackUnderflow"
	case KindDuplicateEntry:
		return "DuplicateEntry"
	case KindExternal:
		return "ExternalFailure"
	default:
		return "Unknown"
	}
}

// Error is a structured error with kind, message, and hint.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. This lets callers
// write errors.Is(err, errs.Sentinel(errs.KindBadArgument)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// FullError returns the message followed by the cause chain and the hint.
// Each link of the chain is printed on its own line as "<kind>: <message>".
func (e *Error) FullError() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, link := range Chain(e.Cause) {
		b.WriteString("\n  caused by ")
		b.WriteString(link)
	}
	if hint := firstHint(e); hint != "" {
		b.WriteString("\n\nHint: ")
		b.WriteString(hint)
	}
	return b.String()
}

// Sentinel returns a message-less *Error usable as an errors.Is target.
func Sentinel(k Kind) *Error {
	return &Error{Kind: k}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Chain renders every link of err's cause chain as "<kind>: <message>".
// Links that are not *Error are reported with their Go type name.
func Chain(err error) []string {
	var out []string
	for err != nil {
		if e, ok := err.(*Error); ok {
			out = append(out, fmt.Sprintf("%s: %s", e.Kind, e.Message))
			err = e.Cause
			continue
		}
		next := errors.Unwrap(err)
		msg := err.Error()
		if next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}
		out = append(out, fmt.Sprintf("%T: %s", err, msg))
		err = next
	}
	return out
}

func firstHint(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Hint != "" {
			return e.Hint
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Syntax reports malformed expression text at a byte offset.
func Syntax(pos int, format string, args ...any) *Error {
	return &Error{
		Kind:    KindSyntax,
		Message: fmt.Sprintf("syntax error at offset %d: %s", pos, fmt.Sprintf(format, args...)),
		Hint:    "Quote arguments that contain spaces, commas, pipes or parentheses.",
	}
}

// UnknownCommand indicates a simple command missing from the registry.
// Suggestions, when present, are offered as a hint.
func UnknownCommand(name string, suggestions []string) *Error {
	e := &Error{
		Kind:    KindUnknownCommand,
		Message: fmt.Sprintf("unknown command %q", name),
		Hint:    "Run 'pkipipe commands' to list the available commands.",
	}
	if len(suggestions) > 0 {
		e.Hint = fmt.Sprintf("Did you mean %s?", strings.Join(suggestions, " or "))
	}
	return e
}

// UnknownFunction indicates a function missing from the registry.
func UnknownFunction(name string, suggestions []string) *Error {
	e := &Error{
		Kind:    KindUnknownFunction,
		Message: fmt.Sprintf("unknown function %q", name),
		Hint:    "Run 'pkipipe commands' to list the available functions.",
	}
	if len(suggestions) > 0 {
		e.Hint = fmt.Sprintf("Did you mean %s?", strings.Join(suggestions, " or "))
	}
	return e
}

// BadArgument indicates an arity or argument shape violation.
func BadArgument(format string, args ...any) *Error {
	return &Error{
		Kind:    KindBadArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidTarget indicates an operation applied to an unsuitable value.
func InvalidTarget(op, what string) *Error {
	return &Error{
		Kind:    KindInvalidTarget,
		Message: fmt.Sprintf("%s: invalid target %s", op, what),
	}
}

// TypeConversion indicates a failed explicit conversion.
func TypeConversion(what, target string) *Error {
	return &Error{
		Kind:    KindTypeConversion,
		Message: fmt.Sprintf("cannot convert %s to %s", what, target),
		Hint:    "A sequence converts only when exactly one of its members matches the requested type.",
	}
}

// StackUnderflow indicates pop or peek on an empty stack.
func StackUnderflow(op string) *Error {
	return &Error{
		Kind:    KindStackUnderflow,
		Message: fmt.Sprintf("%s: stack underflow", op),
		Hint:    "The command needs an input value. Pipe a value into it, e.g. 'read cert.pem | info'.",
	}
}

// DuplicateEntry indicates a store entry alias that already exists.
func DuplicateEntry(alias string) *Error {
	return &Error{
		Kind:    KindDuplicateEntry,
		Message: fmt.Sprintf("duplicate store entry %q", alias),
		Hint:    "Store entry aliases must be unique. Rename one entry with entry(\"new-name\", ...).",
	}
}

// External wraps a collaborator failure, preserving the cause.
func External(message string, cause error) *Error {
	return &Error{
		Kind:    KindExternal,
		Message: message,
		Cause:   cause,
	}
}

// FileNotFound indicates a missing input file.
func FileNotFound(path string, cause error) *Error {
	return &Error{
		Kind:    KindExternal,
		Message: fmt.Sprintf("file not found: %s", path),
		Hint:    "Check that the file path is correct and the file exists.",
		Cause:   cause,
	}
}

// FilePermission indicates the OS refused access to path.
func FilePermission(path string, cause error) *Error {
	return &Error{
		Kind:    KindExternal,
		Message: fmt.Sprintf("permission denied: %s", path),
		Hint:    "Check that you have read/write permissions for this file and its directory.",
		Cause:   cause,
	}
}

// FileAlreadyExists indicates write would replace an existing file.
func FileAlreadyExists(path string) *Error {
	return &Error{
		Kind:    KindExternal,
		Message: fmt.Sprintf("output file already exists: %s", path),
		Hint:    "Use --force to overwrite it, or write to a different path.",
	}
}

// AtomicWriteFailed indicates the final rename of a write failed.
func AtomicWriteFailed(path string, cause error) *Error {
	return &Error{
		Kind:    KindExternal,
		Message: fmt.Sprintf("atomic write failed for: %s", path),
		Hint:    "The temporary file could not be renamed to the final path. Check disk space and permissions.",
		Cause:   cause,
	}
}

// Classify attempts to categorize a generic error into an *Error.
// It inspects error messages for known patterns from the os package, the
// piv-go library and the PKCS#12 decoders and attaches hints.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	// Already structured
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	errStr := err.Error()
	errLower := strings.ToLower(errStr)

	// Smart card status words surfaced by piv-go
	if strings.Contains(errLower, "yubikey") || strings.Contains(errLower, "smart card") || strings.Contains(errLower, "piv") {
		e := External("YubiKey operation failed", err)
		switch {
		case strings.Contains(errStr, "6a82") || strings.Contains(errLower, "data object or application not found"):
			e.Hint = "No certificate exists in this slot. Check the slot name (9a, 9c, 9d or 9e)."
		case strings.Contains(errLower, "no yubikey") || strings.Contains(errLower, "no reader"):
			e.Hint = "Make sure your YubiKey is plugged in. On Linux, ensure pcscd is running: 'sudo systemctl start pcscd'"
		case strings.Contains(errStr, "6982") || strings.Contains(errLower, "security status not satisfied"):
			e.Hint = "The YubiKey refused the operation. Touch the key when it blinks."
		}
		return e
	}

	// File errors
	if errors.Is(err, os.ErrNotExist) || strings.Contains(errLower, "no such file") {
		e := External("file not found", err)
		e.Hint = "Check that the file path is correct and the file exists."
		return e
	}
	if errors.Is(err, os.ErrPermission) || strings.Contains(errLower, "permission denied") {
		e := External("permission denied", err)
		e.Hint = "Check that you have read/write permissions for this file and its directory."
		return e
	}
	if errors.Is(err, os.ErrExist) {
		e := External("file already exists", err)
		e.Hint = "Use --force to overwrite existing files."
		return e
	}

	// Container passwords
	if strings.Contains(errLower, "incorrect password") || strings.Contains(errLower, "decryption password incorrect") {
		e := External("wrong password", err)
		e.Hint = "Pass the container password with --password pass:<secret>, env:<VAR> or file:<path>."
		return e
	}

	return &Error{
		Kind:    KindUnknown,
		Message: "unexpected failure",
		Cause:   err,
	}
}

// ExitWithError prints a classified error with its cause chain and hint to
// stderr, then exits with status 1. Does nothing if err is nil.
func ExitWithError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", Classify(err).FullError())
	os.Exit(1)
}
