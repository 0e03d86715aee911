/*
Copyright © 2025 Logicos Software

key.go implements private keys, public keys and key pairs.
*/
package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"strings"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/ssh"

	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

// keyInfo returns the algorithm name and size in bits of a public key.
func keyInfo(pub crypto.PublicKey) (string, int) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return "RSA", k.N.BitLen()
	case *ecdsa.PublicKey:
		return "ECDSA " + k.Curve.Params().Name, k.Curve.Params().BitSize
	case ed25519.PublicKey:
		return "Ed25519", 256
	default:
		return fmt.Sprintf("%T", pub), 0
	}
}

func samePublicKey(a, b crypto.PublicKey) bool {
	k, ok := a.(interface{ Equal(crypto.PublicKey) bool })
	return ok && k.Equal(b)
}

// PrivateKey is a private key, optionally carrying the password it is
// protected with when encoded.
type PrivateKey struct {
	value.Base
	key crypto.Signer
	enc *EncryptionInfo
}

// NewPrivateKey returns a private key value. enc may be nil.
func NewPrivateKey(src value.Source, key crypto.Signer, enc *EncryptionInfo) *PrivateKey {
	return &PrivateKey{Base: value.NewBase(src), key: key, enc: enc}
}

// Signer returns the key.
func (k *PrivateKey) Signer() crypto.Signer { return k.key }

// Public returns the matching public key.
func (k *PrivateKey) Public() *PublicKey {
	return NewPublicKey(k.Source().Derive("public key"), k.key.Public())
}

// Encryption returns the protection, nil when unprotected.
func (k *PrivateKey) Encryption() *EncryptionInfo { return k.enc }

// WithEncryption returns a copy protected by enc, or unprotected for nil.
func (k *PrivateKey) WithEncryption(enc *EncryptionInfo) value.Value {
	return k.withEncryption(enc)
}

func (k *PrivateKey) withEncryption(enc *EncryptionInfo) *PrivateKey {
	return NewPrivateKey(k.Source(), k.key, enc)
}

// PKCS8 returns the unencrypted PKCS#8 DER encoding.
func (k *PrivateKey) PKCS8() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.key)
}

func (k *PrivateKey) Kind() value.Kind { return value.KindPrivateKey }

func (k *PrivateKey) Describe() string {
	alg, bits := keyInfo(k.key.Public())
	return fmt.Sprintf("%s (%s %d)", value.DefaultDescribe(k), alg, bits)
}

func (k *PrivateKey) Properties() *value.Properties {
	return k.Memo(func(p *value.Properties) {
		src := k.Source()
		alg, bits := keyInfo(k.key.Public())
		p.Set("algorithm", NewAlgorithm(src.Derive("algorithm"), alg))
		p.Set("size", value.NewInt(src.Derive("size"), int64(bits)))
		p.Set("public-key", k.Public())
		p.Set("encryption", encryptionProperty(src, k.enc))
	})
}

func (k *PrivateKey) Equal(other value.Value) bool {
	x, ok := other.(*PrivateKey)
	if !ok {
		return false
	}
	eq, ok := k.key.(interface{ Equal(crypto.PrivateKey) bool })
	return ok && eq.Equal(x.key)
}

// EqualString matches the fingerprint of the public half.
func (k *PrivateKey) EqualString(s string) bool {
	return k.Public().EqualString(s)
}

// Encode writes PKCS#8 PEM, encrypted when a password is attached.
func (k *PrivateKey) Encode(w io.Writer) error {
	if pw := k.enc.Password(); pw != "" {
		der, err := pkcs8.MarshalPrivateKey(k.key, []byte(pw), nil)
		if err != nil {
			return errs.External("cannot encrypt private key", err)
		}
		return pem.Encode(w, &pem.Block{Type: pemEncryptedPrivateKey, Bytes: der})
	}
	der, err := k.PKCS8()
	if err != nil {
		return errs.External("cannot encode private key", err)
	}
	return pem.Encode(w, &pem.Block{Type: pemPrivateKey, Bytes: der})
}

// PublicKey is a public key.
type PublicKey struct {
	value.Base
	key crypto.PublicKey
}

// NewPublicKey returns a public key value.
func NewPublicKey(src value.Source, key crypto.PublicKey) *PublicKey {
	return &PublicKey{Base: value.NewBase(src), key: key}
}

// Key returns the public key.
func (k *PublicKey) Key() crypto.PublicKey { return k.key }

// Fingerprint returns the hex SHA-256 digest of the PKIX encoding.
func (k *PublicKey) Fingerprint() string {
	der, err := x509.MarshalPKIXPublicKey(k.key)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// SSH returns the key in OpenSSH wire form.
func (k *PublicKey) SSH() (ssh.PublicKey, error) {
	return ssh.NewPublicKey(k.key)
}

func (k *PublicKey) Kind() value.Kind { return value.KindPublicKey }

func (k *PublicKey) Describe() string {
	alg, bits := keyInfo(k.key)
	return fmt.Sprintf("%s (%s %d)", value.DefaultDescribe(k), alg, bits)
}

func (k *PublicKey) Properties() *value.Properties {
	return k.Memo(func(p *value.Properties) {
		src := k.Source()
		alg, bits := keyInfo(k.key)
		p.Set("algorithm", NewAlgorithm(src.Derive("algorithm"), alg))
		p.Set("size", value.NewInt(src.Derive("size"), int64(bits)))
		p.Set("fingerprint", value.NewString(src.Derive("fingerprint"), k.Fingerprint()))
		p.Try("ssh-fingerprint", src, func() (value.Value, error) {
			sk, err := k.SSH()
			if err != nil {
				return nil, err
			}
			return value.NewString(src.Derive("ssh-fingerprint"), ssh.FingerprintSHA256(sk)), nil
		})
		p.Try("ssh-authorized-key", src, func() (value.Value, error) {
			sk, err := k.SSH()
			if err != nil {
				return nil, err
			}
			line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sk)))
			return value.NewString(src.Derive("ssh-authorized-key"), line), nil
		})
	})
}

func (k *PublicKey) Equal(other value.Value) bool {
	x, ok := other.(*PublicKey)
	return ok && samePublicKey(k.key, x.key)
}

// EqualString accepts the hex SHA-256 fingerprint or the OpenSSH
// "SHA256:..." fingerprint.
func (k *PublicKey) EqualString(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "SHA256:") {
		sk, err := k.SSH()
		return err == nil && ssh.FingerprintSHA256(sk) == s
	}
	fp := k.Fingerprint()
	return fp != "" && strings.EqualFold(strings.ReplaceAll(s, ":", ""), fp)
}

// Encode writes PKIX PEM.
func (k *PublicKey) Encode(w io.Writer) error {
	der, err := x509.MarshalPKIXPublicKey(k.key)
	if err != nil {
		return errs.External("cannot encode public key", err)
	}
	return pem.Encode(w, &pem.Block{Type: pemPublicKey, Bytes: der})
}

// publicKeyOf extracts the public key of a public credential.
func publicKeyOf(v value.Value) (crypto.PublicKey, bool) {
	switch x := v.(type) {
	case *PublicKey:
		return x.key, true
	case *Certificate:
		return x.cert.PublicKey, x.cert.PublicKey != nil
	case *CertificateChain:
		if leaf := x.Leaf(); leaf != nil {
			return leaf.cert.PublicKey, leaf.cert.PublicKey != nil
		}
	}
	return nil, false
}

// KeyPair joins a private key with its public credential: a public key, a
// certificate or a certificate chain.
type KeyPair struct {
	value.Base
	priv   *PrivateKey
	public value.Value
}

// NewKeyPair pairs priv with public. The public credential must carry the
// public half of priv.
func NewKeyPair(src value.Source, priv *PrivateKey, public value.Value) (*KeyPair, error) {
	pub, ok := publicKeyOf(public)
	if !ok {
		return nil, errs.InvalidTarget("pair", public.Describe()+" is not a public credential")
	}
	if !samePublicKey(priv.key.Public(), pub) {
		return nil, errs.BadArgument("private key %s does not match %s", priv.Describe(), public.Describe())
	}
	return &KeyPair{Base: value.NewBase(src), priv: priv, public: public}, nil
}

// PrivateKey returns the private half.
func (p *KeyPair) PrivateKey() *PrivateKey { return p.priv }

// PublicCredential returns the public half as given.
func (p *KeyPair) PublicCredential() value.Value { return p.public }

// Chain returns the certificates of the public credential, leaf first.
func (p *KeyPair) Chain() []*Certificate {
	switch x := p.public.(type) {
	case *Certificate:
		return []*Certificate{x}
	case *CertificateChain:
		return x.Certificates()
	}
	return nil
}

// Members implements value.Container.
func (p *KeyPair) Members() []value.Value {
	return []value.Value{p.priv, p.public}
}

// ConvertTo presents the pair as the two-element sequence {private, public}.
func (p *KeyPair) ConvertTo(target value.Kind) (value.Value, bool) {
	if target == value.KindSequence {
		return value.NewSequence(p.Source(), p.priv, p.public), true
	}
	return nil, false
}

// Encryption returns the protection of the private half.
func (p *KeyPair) Encryption() *EncryptionInfo { return p.priv.enc }

// WithEncryption returns a copy whose private half is protected by enc.
func (p *KeyPair) WithEncryption(enc *EncryptionInfo) value.Value {
	return &KeyPair{Base: value.NewBase(p.Source()), priv: p.priv.withEncryption(enc), public: p.public}
}

func (p *KeyPair) Kind() value.Kind { return value.KindKeyPair }

func (p *KeyPair) Describe() string {
	if leaf := p.Chain(); len(leaf) > 0 {
		return fmt.Sprintf("%s (%s)", value.DefaultDescribe(p), leaf[0].cert.Subject)
	}
	return value.DefaultDescribe(p)
}

func (p *KeyPair) Properties() *value.Properties {
	return p.Memo(func(props *value.Properties) {
		src := p.Source()
		props.Set("private-key", p.priv)
		switch p.public.(type) {
		case *Certificate:
			props.Set("certificate", p.public)
		case *CertificateChain:
			props.Set("chain", p.public)
			props.Set("certificate", p.Chain()[0])
		default:
			props.Set("public-key", p.public)
		}
		alg, _ := keyInfo(p.priv.key.Public())
		props.Set("algorithm", NewAlgorithm(src.Derive("algorithm"), alg))
		props.Set("encryption", encryptionProperty(src, p.priv.enc))
	})
}

func (p *KeyPair) Equal(other value.Value) bool {
	x, ok := other.(*KeyPair)
	return ok && p.priv.Equal(x.priv) && value.Equal(p.public, x.public)
}

// EqualString matches the public credential.
func (p *KeyPair) EqualString(s string) bool {
	return p.public.EqualString(s)
}

// Encode writes the private key followed by the public credential.
func (p *KeyPair) Encode(w io.Writer) error {
	if err := p.priv.Encode(w); err != nil {
		return err
	}
	return p.public.Encode(w)
}
