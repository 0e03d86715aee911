/*
Copyright © 2025 Logicos Software

functions.go implements seq, keystore, entry, pair and verify.
*/
package commands

import (
	"strings"
	"time"

	"pkipipe/internal/ast"
	"pkipipe/internal/engine"
	"pkipipe/internal/errs"
	"pkipipe/internal/pki"
	"pkipipe/internal/value"
)

// now is the clock verify checks validity periods against.
var now = time.Now

func fnSeq(r *engine.Runner, _ []string, args []ast.Node) error {
	vals, err := r.EvalValues(args)
	if err != nil {
		return err
	}
	r.Stack().Push(value.NewSequence(value.NewSource("seq"), vals...))
	return nil
}

// fnKeystore builds a store from stores, entries and sequences of those.
// The option selects the format, pkcs12 by default.
func fnKeystore(r *engine.Runner, opts []string, args []ast.Node) error {
	format := pki.FormatPKCS12
	switch len(opts) {
	case 0:
	case 1:
		f, ok := pki.NormalizeFormat(opts[0])
		if !ok || f == pki.FormatDER {
			e := errs.BadArgument("unknown key store format %q", opts[0])
			e.Hint = "Use keystore[" + strings.Join(pki.StoreFormats(), "], keystore[") + "]."
			return e
		}
		format = f
	default:
		return errs.BadArgument("keystore takes one format option, got %d", len(opts))
	}

	vals, err := r.EvalValues(args)
	if err != nil {
		return err
	}
	src := value.NewSource("keystore")
	store, err := pki.NewStore(src, format, nil)
	if err != nil {
		return err
	}
	var add func(v value.Value) error
	add = func(v value.Value) error {
		var err error
		switch x := v.(type) {
		case *pki.Store:
			store, err = store.Merge(src, x)
		case *pki.StoreEntry:
			store, err = store.Add(src, x)
		case *value.Sequence:
			for _, m := range x.Members() {
				if err := add(m); err != nil {
					return err
				}
			}
		default:
			e := errs.InvalidTarget("keystore", v.Describe()+" is not a store entry")
			e.Hint = `Name values with entry, e.g. keystore(entry("server", pair(read a.crt, read a.key))).`
			return e
		}
		return err
	}
	for _, v := range vals {
		if err := add(v); err != nil {
			return err
		}
	}
	r.Stack().Push(store)
	return nil
}

// fnEntry names a value. An existing entry is renamed.
func fnEntry(r *engine.Runner, _ []string, args []ast.Node) error {
	vals, err := r.EvalValues(args)
	if err != nil {
		return err
	}
	alias, ok := value.Text(vals[0])
	if !ok || alias == "" {
		return errs.BadArgument("entry alias must be a non-empty scalar, got %s", vals[0].Describe())
	}
	src := value.NewSource("entry " + alias)
	if e, ok := vals[1].(*pki.StoreEntry); ok {
		r.Stack().Push(e.WithAlias(src, alias))
		return nil
	}
	r.Stack().Push(pki.NewStoreEntry(src, alias, vals[1], nil))
	return nil
}

func privateKeyOf(v value.Value) (*pki.PrivateKey, bool) {
	if k, ok := v.(*pki.PrivateKey); ok {
		return k, true
	}
	if c, ok := value.As(v, value.KindPrivateKey); ok {
		k, ok := c.(*pki.PrivateKey)
		return k, ok
	}
	return nil, false
}

// publicCredential returns v when it is a certificate, chain or public key,
// otherwise the single such member of v.
func publicCredential(v value.Value) (value.Value, bool) {
	switch v.(type) {
	case *pki.Certificate, *pki.CertificateChain, *pki.PublicKey:
		return v, true
	}
	for _, k := range []value.Kind{value.KindCertificateChain, value.KindCertificate, value.KindPublicKey} {
		if c, ok := value.As(v, k); ok {
			return c, true
		}
	}
	return nil, false
}

// fnPair joins a private key and a public credential given in either
// order.
func fnPair(r *engine.Runner, _ []string, args []ast.Node) error {
	vals, err := r.EvalValues(args)
	if err != nil {
		return err
	}
	src := value.NewSource("pair")
	for _, order := range [][2]value.Value{{vals[0], vals[1]}, {vals[1], vals[0]}} {
		priv, ok := privateKeyOf(order[0])
		if !ok {
			continue
		}
		public, ok := publicCredential(order[1])
		if !ok {
			continue
		}
		pair, err := pki.NewKeyPair(src, priv, public)
		if err != nil {
			return err
		}
		r.Stack().Push(pair)
		return nil
	}
	return errs.BadArgument("pair needs a private key and a certificate or public key, got %s and %s",
		vals[0].Describe(), vals[1].Describe())
}

// fnVerify checks one value, a certificate against its issuer, or, given a
// sequence, every element, collecting one Result per element.
func fnVerify(r *engine.Runner, _ []string, args []ast.Node) error {
	vals, err := r.EvalValues(args)
	if err != nil {
		return err
	}
	src := value.NewSource("verify")

	if len(vals) == 2 {
		if err := pki.VerifyIssued(vals[0], vals[1]); err != nil {
			return errs.External("verification failed", err)
		}
		r.Stack().Push(value.NewSuccess(src, vals[0]))
		return nil
	}

	if seq, ok := vals[0].(*value.Sequence); ok {
		out := value.NewSequence(src)
		for _, elem := range seq.Members() {
			esrc := elem.Source().Derive("verify")
			if err := pki.Verify(elem, now()); err != nil {
				out.Append(value.NewFailure(esrc, err))
			} else {
				out.Append(value.NewSuccess(esrc, elem))
			}
		}
		r.Stack().Push(out)
		return nil
	}

	if err := pki.Verify(vals[0], now()); err != nil {
		return errs.External("verification failed", err)
	}
	r.Stack().Push(value.NewSuccess(src, vals[0]))
	return nil
}
