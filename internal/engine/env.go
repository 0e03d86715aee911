/*
Copyright © 2025 Logicos Software

env.go defines the collaborators available to commands.
*/
package engine

import (
	"io"
	"log/slog"

	"pkipipe/internal/password"
	"pkipipe/internal/value"
)

// PasswordFunc returns the password protecting a container. Parsers call
// it only when they meet encrypted content.
type PasswordFunc = func() (string, error)

// Parser detects the format of raw bytes and decodes them into a value.
type Parser interface {
	Parse(data []byte, path string, pw PasswordFunc) (value.Value, error)
}

// PasswordSupplier resolves a password specification to a password.
type PasswordSupplier interface {
	Supply(spec password.Spec) (string, error)
}

// WriteCommitter is a byte sink whose content only becomes visible once
// committed. Abort discards everything written so far.
type WriteCommitter interface {
	io.Writer
	Commit() error
	Abort()
}

// FileSystem is the file access used by read and write.
type FileSystem interface {
	Resolve(path string) string
	OpenForRead(path string) (io.ReadCloser, error)
	OpenForWrite(path string, overwrite bool) (WriteCommitter, error)
}

// Environment holds the collaborators commands reach the outside world
// through.
type Environment struct {
	Parser    Parser
	Passwords PasswordSupplier
	Files     FileSystem

	// DefaultPassword is used by read and set-password when no spec is
	// given on the command line.
	DefaultPassword password.Spec

	// Overwrite allows write to replace existing files.
	Overwrite bool

	Logger *slog.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Log returns the environment logger, or a logger that discards
// everything.
func (e *Environment) Log() *slog.Logger {
	if e == nil || e.Logger == nil {
		return discardLogger
	}
	return e.Logger
}

// Context is shared by reference by every runner of one evaluation and is
// never mutated while it runs.
type Context struct {
	Registry *Registry
	Env      *Environment
	Out      io.Writer
}

// Output returns the result sink, io.Discard when none is set.
func (c *Context) Output() io.Writer {
	if c.Out == nil {
		return io.Discard
	}
	return c.Out
}
