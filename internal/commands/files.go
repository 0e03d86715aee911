/*
Copyright © 2025 Logicos Software

files.go implements read, write and the password commands.
*/
package commands

import (
	"io"

	"pkipipe/internal/engine"
	"pkipipe/internal/errs"
	"pkipipe/internal/password"
	"pkipipe/internal/pki"
	"pkipipe/internal/value"
)

// passwordSpec returns the spec named by args[i], or the environment
// default when absent.
func passwordSpec(ctx *engine.Context, args []string, i int) (password.Spec, error) {
	if len(args) > i {
		return password.ParseSpec(args[i])
	}
	return ctx.Env.DefaultPassword, nil
}

func runRead(ctx *engine.Context, st *engine.Stack, args []string) error {
	env := ctx.Env
	spec, err := passwordSpec(ctx, args, 1)
	if err != nil {
		return err
	}
	path := env.Files.Resolve(args[0])

	r, err := env.Files.OpenForRead(path)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return errs.External("cannot read "+path, err)
	}
	env.Log().Debug("read file", "path", path, "bytes", len(data))

	pw := func() (string, error) {
		return env.Passwords.Supply(spec.WithLabel("Password for " + path))
	}
	v, err := env.Parser.Parse(data, path, pw)
	if err != nil {
		return err
	}
	st.Push(v)
	return nil
}

func runWrite(ctx *engine.Context, st *engine.Stack, args []string) error {
	env := ctx.Env
	v, err := st.Peek("write")
	if err != nil {
		return err
	}
	path := env.Files.Resolve(args[0])
	format := pki.FormatForPath(path)
	if len(args) > 1 {
		f, ok := pki.NormalizeFormat(args[1])
		if !ok {
			e := errs.BadArgument("unknown output format %q", args[1])
			e.Hint = "Use pem, der, pkcs12 (p12, pfx) or jks."
			return e
		}
		format = f
	}

	w, err := env.Files.OpenForWrite(path, env.Overwrite)
	if err != nil {
		return err
	}
	defer w.Abort()
	if err := pki.Encode(w, v, format); err != nil {
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}
	env.Log().Info("wrote file", "path", path, "format", format, "value", v.Kind().String())
	return nil
}

// encryptable finds the value set-password and remove-password act on:
// the value itself, or its single encrypted member.
func encryptable(op string, v value.Value) (pki.Encryptable, error) {
	if e, ok := v.(pki.Encryptable); ok {
		return e, nil
	}
	if c, ok := value.As(v, value.KindEncrypted); ok {
		if e, ok := c.(pki.Encryptable); ok {
			return e, nil
		}
	}
	return nil, errs.InvalidTarget(op, v.Describe()+" cannot carry a password")
}

func runSetPassword(ctx *engine.Context, st *engine.Stack, args []string) error {
	v, err := st.Pop("set-password")
	if err != nil {
		return err
	}
	e, err := encryptable("set-password", v)
	if err != nil {
		return err
	}
	spec, err := passwordSpec(ctx, args, 0)
	if err != nil {
		return err
	}
	pw, err := ctx.Env.Passwords.Supply(spec.WithLabel("New password for " + v.Source().Description))
	if err != nil {
		return err
	}
	enc := pki.NewEncryptionInfo(v.Source().Derive("encryption"), pw, "")
	st.Push(e.WithEncryption(enc))
	return nil
}

func runRemovePassword(_ *engine.Context, st *engine.Stack, _ []string) error {
	v, err := st.Pop("remove-password")
	if err != nil {
		return err
	}
	e, err := encryptable("remove-password", v)
	if err != nil {
		return err
	}
	st.Push(e.WithEncryption(nil))
	return nil
}
