/*
Copyright © 2025 Logicos Software

Package commands implements the pkipipe command surface: the simple
commands operating on the value stack and the functions that evaluate their
own arguments.
*/
package commands

import (
	"pkipipe/internal/engine"
)

// Register adds every built-in command and function to reg.
func Register(reg *engine.Registry) {
	for _, c := range builtinCommands() {
		reg.RegisterCommand(c)
	}
	for _, f := range builtinFunctions() {
		reg.RegisterFunction(f)
	}
}

// NewRegistry returns a registry holding the built-ins.
func NewRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	Register(reg)
	return reg
}

func builtinCommands() []engine.Command {
	return []engine.Command{
		{Name: "info", Usage: "info", Summary: "describe the top value and its properties", Arity: engine.Exactly(0), Run: runInfo},
		{Name: "print", Usage: "print", Summary: "write the top value's canonical encoding", Arity: engine.Exactly(0), Run: runPrint},
		{Name: "hex", Usage: "hex", Summary: "hex dump of the top value's encoding", Arity: engine.Exactly(0), Run: runHex},
		{Name: "property", Usage: "property <path>...", Summary: "replace the top value with one or more properties", Arity: engine.AtLeast(1), Run: runProperty},
		{Name: "equals", Usage: "equals <text>", Summary: "compare the top value with text", Arity: engine.Exactly(1), Run: compare("equals", true)},
		{Name: "not-equals", Usage: "not-equals <text>", Summary: "negated equals", Arity: engine.Exactly(1), Run: compare("not-equals", false)},
		{Name: "read", Usage: "read <path> [password-spec]", Summary: "read and decode a file or yubikey:<slot>", Arity: engine.Between(1, 2), Run: runRead},
		{Name: "write", Usage: "write <path> [format]", Summary: "encode the top value to a file", Arity: engine.Between(1, 2), Run: runWrite},
		{Name: "set-password", Usage: "set-password [password-spec]", Summary: "protect a key, entry or store with a password", Arity: engine.Between(0, 1), Run: runSetPassword},
		{Name: "remove-password", Usage: "remove-password", Summary: "drop password protection", Arity: engine.Exactly(0), Run: runRemovePassword},
		{Name: "as", Usage: "as <type>", Summary: "convert the top value to a type", Arity: engine.Exactly(1), Run: runAs},
		{Name: "first", Usage: "first", Summary: "first element of a sequence", Arity: engine.Exactly(0), Run: pick("first", false)},
		{Name: "last", Usage: "last", Summary: "last element of a sequence", Arity: engine.Exactly(0), Run: pick("last", true)},
		{Name: "select", Usage: "select <type>...", Summary: "elements converting to any of the types", Arity: engine.AtLeast(1), Run: runSelect},
		{Name: "sort", Usage: "sort", Summary: "stable sort by kind, natural order and description", Arity: engine.Exactly(0), Run: runSort},
		{Name: "each", Usage: "each <body>...", Summary: "apply a body to every element", Arity: engine.AtLeast(1), RunNode: iterate("each", false)},
		{Name: "filter", Usage: "filter <body>...", Summary: "keep the elements the body maps to true", Arity: engine.AtLeast(1), RunNode: iterate("filter", true)},
		{Name: "recurse", Usage: "recurse", Summary: "flatten nested sequences depth first", Arity: engine.Exactly(0), Run: runRecurse},
		{Name: "merge", Usage: "merge [count]", Summary: "fold stores and entries into the top store", Arity: engine.Between(0, 1), Run: runMerge},
	}
}

func builtinFunctions() []engine.Function {
	return []engine.Function{
		{Name: "seq", Usage: "seq(value, ...)", Summary: "sequence of the argument values", Arity: engine.AtLeast(0), Run: fnSeq},
		{Name: "keystore", Usage: "keystore[format](entry, ...)", Summary: "key store from entries and stores", Arity: engine.AtLeast(0), Run: fnKeystore},
		{Name: "entry", Usage: "entry(alias, value)", Summary: "named key store entry", Arity: engine.Exactly(2), Run: fnEntry},
		{Name: "pair", Usage: "pair(private-key, certificate)", Summary: "key pair, arguments in either order", Arity: engine.Exactly(2), Run: fnPair},
		{Name: "verify", Usage: "verify(value) | verify(certificate, issuer)", Summary: "check signatures, validity and key match", Arity: engine.Between(1, 2), Run: fnVerify},
	}
}
