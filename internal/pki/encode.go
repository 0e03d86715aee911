/*
Copyright © 2025 Logicos Software

encode.go writes values as PEM, DER, PKCS#12 and JKS.
*/
package pki

import (
	"crypto/x509"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/youmark/pkcs8"
	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

// Output formats.
const (
	FormatPEM    = "pem"
	FormatDER    = "der"
	FormatPKCS12 = "pkcs12"
	FormatJKS    = "jks"
)

var formatAliases = map[string]string{
	"pem":    FormatPEM,
	"der":    FormatDER,
	"pkcs12": FormatPKCS12,
	"p12":    FormatPKCS12,
	"pfx":    FormatPKCS12,
	"jks":    FormatJKS,
}

var extensionFormats = map[string]string{
	".pem": FormatPEM,
	".crt": FormatPEM,
	".cer": FormatPEM,
	".key": FormatPEM,
	".pub": FormatPEM,
	".der": FormatDER,
	".p12": FormatPKCS12,
	".pfx": FormatPKCS12,
	".jks": FormatJKS,
}

// NormalizeFormat resolves a format name or alias, ignoring case.
func NormalizeFormat(name string) (string, bool) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// FormatForPath picks the output format from the file extension. Unknown
// extensions return "", meaning the value's own encoding.
func FormatForPath(path string) string {
	return extensionFormats[strings.ToLower(filepath.Ext(path))]
}

// StoreFormats lists the formats a Store can be written in.
func StoreFormats() []string {
	return []string{FormatPKCS12, FormatJKS, FormatPEM}
}

// Encode writes v in format. An empty format uses the value's canonical
// encoding.
func Encode(w io.Writer, v value.Value, format string) error {
	switch format {
	case "":
		return v.Encode(w)
	case FormatPEM:
		if s, ok := v.(*Store); ok {
			return encodeStore(w, s, FormatPEM)
		}
		return v.Encode(w)
	case FormatDER:
		return encodeDER(w, v)
	case FormatPKCS12, FormatJKS:
		s, err := ToStore(v, format)
		if err != nil {
			return err
		}
		return encodeStore(w, s, format)
	}
	return errs.BadArgument("unknown output format %q", format)
}

// ToStore wraps v into a store of the given format. Stores are re-targeted,
// entries and key pairs become single-entry stores, and sequences of those
// are collected.
func ToStore(v value.Value, format string) (*Store, error) {
	src := v.Source()
	if s, ok := v.(*Store); ok {
		return s.WithFormat(format), nil
	}
	var enc *EncryptionInfo
	if e, ok := v.(Encryptable); ok {
		enc = e.Encryption()
	}
	entries, err := storeEntries(v)
	if err != nil {
		return nil, err
	}
	return NewStore(src, format, enc, entries...)
}

func storeEntries(v value.Value) ([]*StoreEntry, error) {
	switch x := v.(type) {
	case *StoreEntry:
		return []*StoreEntry{x}, nil
	case *Store:
		return x.Entries(), nil
	case *KeyPair:
		return []*StoreEntry{NewStoreEntry(x.Source(), "key", x, nil)}, nil
	case *Certificate:
		return []*StoreEntry{NewStoreEntry(x.Source(), "cert", x, nil)}, nil
	case *CertificateChain:
		var out []*StoreEntry
		for i, c := range x.Certificates() {
			out = append(out, NewStoreEntry(c.Source(), fmt.Sprintf("cert-%d", i+1), c, nil))
		}
		return out, nil
	case *value.Sequence:
		var out []*StoreEntry
		for _, m := range x.Members() {
			es, err := storeEntries(m)
			if err != nil {
				return nil, err
			}
			out = append(out, es...)
		}
		return out, nil
	}
	return nil, errs.InvalidTarget("keystore", v.Describe())
}

func encodeDER(w io.Writer, v value.Value) error {
	var der []byte
	switch x := v.(type) {
	case *Certificate:
		der = x.cert.Raw
	case *CertificateChain:
		for _, c := range x.certs {
			der = append(der, c.cert.Raw...)
		}
	case *PrivateKey:
		var err error
		if pw := x.enc.Password(); pw != "" {
			der, err = pkcs8.MarshalPrivateKey(x.key, []byte(pw), nil)
		} else {
			der, err = x.PKCS8()
		}
		if err != nil {
			return errs.External("cannot encode private key", err)
		}
	case *PublicKey:
		var err error
		der, err = x509.MarshalPKIXPublicKey(x.key)
		if err != nil {
			return errs.External("cannot encode public key", err)
		}
	case *ASN1:
		der = x.der
	default:
		return errs.InvalidTarget("write der", v.Describe())
	}
	_, err := w.Write(der)
	return err
}

func encodeStore(w io.Writer, s *Store, format string) error {
	switch format {
	case FormatPEM:
		for _, e := range s.entries {
			if err := e.Encode(w); err != nil {
				return err
			}
		}
		return nil
	case FormatPKCS12:
		return encodePKCS12(w, s)
	case FormatJKS:
		return encodeJKS(w, s)
	}
	return errs.BadArgument("cannot write a store as %s (use one of %s)", format, strings.Join(StoreFormats(), ", "))
}

// encodePKCS12 writes s with the sslmate encoder: modern PBES2/AES when a
// password is set, otherwise the passwordless profile. PKCS#12 as produced
// here holds at most one private key; trusted certificates travel with it.
func encodePKCS12(w io.Writer, s *Store) error {
	encoder := pkcs12.Passwordless
	password := s.enc.Password()
	if password != "" {
		encoder = pkcs12.Modern
	}

	var (
		pair    *KeyPair
		trusted []pkcs12.TrustStoreEntry
	)
	for _, e := range s.entries {
		switch x := e.val.(type) {
		case *KeyPair:
			if pair != nil {
				return errs.BadArgument("a PKCS#12 store holds at most one key entry, %q is the second", e.alias)
			}
			pair = x
		case *Certificate:
			trusted = append(trusted, pkcs12.TrustStoreEntry{Cert: x.cert, FriendlyName: e.alias})
		case *CertificateChain:
			for _, c := range x.certs {
				trusted = append(trusted, pkcs12.TrustStoreEntry{Cert: c.cert, FriendlyName: e.alias})
			}
		default:
			return errs.InvalidTarget("write pkcs12", e.Describe())
		}
	}

	var (
		der []byte
		err error
	)
	if pair == nil {
		der, err = encoder.EncodeTrustStoreEntries(trusted, password)
	} else {
		chain := pair.Chain()
		if len(chain) == 0 {
			return errs.BadArgument("PKCS#12 key entries need a certificate, %s has only a public key", pair.Describe())
		}
		cas := make([]*x509.Certificate, 0, len(chain)-1+len(trusted))
		for _, c := range chain[1:] {
			cas = append(cas, c.cert)
		}
		for _, t := range trusted {
			cas = append(cas, t.Cert)
		}
		der, err = encoder.Encode(pair.priv.key, chain[0].cert, cas, password)
	}
	if err != nil {
		return errs.External("cannot encode PKCS#12", err)
	}
	_, err = w.Write(der)
	return err
}

// encodeJKS writes s as a Java key store. The store password also protects
// key entries that carry no password of their own.
func encodeJKS(w io.Writer, s *Store) error {
	password := s.enc.Password()
	if password == "" {
		e := errs.BadArgument("a JKS store needs a password")
		e.Hint = "Attach one with set-password before writing, e.g. '... | set-password pass:changeit | write out.jks'."
		return e
	}
	ks := keystore.New(keystore.WithOrderedAliases(), keystore.WithCaseExactAliases())
	now := time.Now()
	for _, e := range s.entries {
		switch x := e.val.(type) {
		case *KeyPair:
			der, err := x.priv.PKCS8()
			if err != nil {
				return errs.External("cannot encode private key of "+e.alias, err)
			}
			chain := x.Chain()
			if len(chain) == 0 {
				return errs.BadArgument("JKS key entries need a certificate, %q has only a public key", e.alias)
			}
			entry := keystore.PrivateKeyEntry{CreationTime: now, PrivateKey: der}
			for _, c := range chain {
				entry.CertificateChain = append(entry.CertificateChain, keystore.Certificate{Type: "X509", Content: c.cert.Raw})
			}
			keyPassword := e.enc.Password()
			if keyPassword == "" {
				keyPassword = x.priv.enc.Password()
			}
			if keyPassword == "" {
				keyPassword = password
			}
			if err := ks.SetPrivateKeyEntry(e.alias, entry, []byte(keyPassword)); err != nil {
				return errs.External("cannot add JKS entry "+e.alias, err)
			}
		case *Certificate:
			entry := keystore.TrustedCertificateEntry{
				CreationTime: now,
				Certificate:  keystore.Certificate{Type: "X509", Content: x.cert.Raw},
			}
			if err := ks.SetTrustedCertificateEntry(e.alias, entry); err != nil {
				return errs.External("cannot add JKS entry "+e.alias, err)
			}
		default:
			return errs.InvalidTarget("write jks", e.Describe())
		}
	}
	if err := ks.Store(w, []byte(password)); err != nil {
		return errs.External("cannot encode JKS", err)
	}
	return nil
}
