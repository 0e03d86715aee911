/*
Copyright © 2025 Logicos Software

certificate.go implements certificates and certificate chains.
*/
package pki

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"pkipipe/internal/value"
)

// Certificate is an X.509 certificate.
type Certificate struct {
	value.Base
	cert *x509.Certificate
}

// NewCertificate returns a certificate value.
func NewCertificate(src value.Source, cert *x509.Certificate) *Certificate {
	return &Certificate{Base: value.NewBase(src), cert: cert}
}

// X509 returns the parsed certificate.
func (c *Certificate) X509() *x509.Certificate { return c.cert }

// Fingerprint returns the hex SHA-256 digest of the DER encoding.
func (c *Certificate) Fingerprint() string {
	sum := sha256.Sum256(c.cert.Raw)
	return hex.EncodeToString(sum[:])
}

// SelfSigned reports whether subject and issuer match and the signature
// verifies with the certificate's own key.
func (c *Certificate) SelfSigned() bool {
	if !bytes.Equal(c.cert.RawSubject, c.cert.RawIssuer) {
		return false
	}
	return c.cert.CheckSignature(c.cert.SignatureAlgorithm, c.cert.RawTBSCertificate, c.cert.Signature) == nil
}

func (c *Certificate) Kind() value.Kind { return value.KindCertificate }

func (c *Certificate) Describe() string {
	return fmt.Sprintf("%s (%s)", value.DefaultDescribe(c), c.cert.Subject)
}

func (c *Certificate) Properties() *value.Properties {
	return c.Memo(func(p *value.Properties) {
		src := c.Source()
		cert := c.cert
		p.Try("subject", src, func() (value.Value, error) {
			return NewDistinguishedNameRaw(src.Derive("subject"), cert.RawSubject)
		})
		p.Try("issuer", src, func() (value.Value, error) {
			return NewDistinguishedNameRaw(src.Derive("issuer"), cert.RawIssuer)
		})
		p.Set("serial", value.NewNumber(src.Derive("serial"), decimal.NewFromBigInt(cert.SerialNumber, 0)))
		p.Set("serial-hex", value.NewString(src.Derive("serial-hex"), strings.ToUpper(cert.SerialNumber.Text(16))))
		p.Set("version", value.NewInt(src.Derive("version"), int64(cert.Version)))
		p.Set("not-before", value.NewDate(src.Derive("not-before"), cert.NotBefore))
		p.Set("not-after", value.NewDate(src.Derive("not-after"), cert.NotAfter))
		p.Set("signature-algorithm", NewAlgorithm(src.Derive("signature-algorithm"), cert.SignatureAlgorithm.String()))
		p.Try("public-key", src, func() (value.Value, error) {
			return c.PublicKey()
		})
		p.Set("is-ca", value.NewBoolean(src.Derive("is-ca"), cert.BasicConstraintsValid && cert.IsCA))
		p.Set("self-signed", value.NewBoolean(src.Derive("self-signed"), c.SelfSigned()))
		p.Set("key-usage", stringSequence(src.Derive("key-usage"), keyUsageNames(cert.KeyUsage)))
		p.Set("ext-key-usage", stringSequence(src.Derive("ext-key-usage"), extKeyUsageNames(cert.ExtKeyUsage)))
		p.Set("dns-names", stringSequence(src.Derive("dns-names"), cert.DNSNames))
		p.Set("email-addresses", stringSequence(src.Derive("email-addresses"), cert.EmailAddresses))
		var ips []string
		for _, ip := range cert.IPAddresses {
			ips = append(ips, ip.String())
		}
		p.Set("ip-addresses", stringSequence(src.Derive("ip-addresses"), ips))
		if len(cert.SubjectKeyId) > 0 {
			p.Set("subject-key-id", value.NewString(src.Derive("subject-key-id"), hex.EncodeToString(cert.SubjectKeyId)))
		}
		if len(cert.AuthorityKeyId) > 0 {
			p.Set("authority-key-id", value.NewString(src.Derive("authority-key-id"), hex.EncodeToString(cert.AuthorityKeyId)))
		}
		exts := value.NewSequence(src.Derive("extensions"))
		for _, ext := range cert.Extensions {
			exts.Append(NewOID(src.Derive("extension"), ext.Id))
		}
		p.Set("extensions", exts)
		p.Set("fingerprint", value.NewString(src.Derive("fingerprint"), c.Fingerprint()))
		p.Set("der", NewASN1(src.Derive("der"), cert.Raw))
	})
}

// PublicKey returns the subject public key.
func (c *Certificate) PublicKey() (*PublicKey, error) {
	if c.cert.PublicKey == nil {
		return nil, fmt.Errorf("unsupported public key algorithm %s", c.cert.PublicKeyAlgorithm)
	}
	return NewPublicKey(c.Source().Derive("public key"), c.cert.PublicKey), nil
}

// ConvertTo presents the certificate as its public key or its DER blob.
func (c *Certificate) ConvertTo(target value.Kind) (value.Value, bool) {
	switch target {
	case value.KindPublicKey:
		pub, err := c.PublicKey()
		if err != nil {
			return nil, false
		}
		return pub, true
	case value.KindASN1:
		return NewASN1(c.Source().Derive("der"), c.cert.Raw), true
	}
	return nil, false
}

func (c *Certificate) Equal(other value.Value) bool {
	x, ok := other.(*Certificate)
	return ok && bytes.Equal(x.cert.Raw, c.cert.Raw)
}

// EqualString accepts the subject name or the SHA-256 fingerprint.
func (c *Certificate) EqualString(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(strings.ReplaceAll(s, ":", ""), c.Fingerprint()) {
		return true
	}
	return strings.EqualFold(normalizeDN(s), normalizeDN(c.cert.Subject.String()))
}

// Encode writes PEM.
func (c *Certificate) Encode(w io.Writer) error {
	return pem.Encode(w, &pem.Block{Type: pemCertificate, Bytes: c.cert.Raw})
}

// Compare orders certificates by NotBefore, then serial number.
func (c *Certificate) Compare(other value.Value) (int, bool) {
	x, ok := other.(*Certificate)
	if !ok {
		return 0, false
	}
	if n := c.cert.NotBefore.Compare(x.cert.NotBefore); n != 0 {
		return n, true
	}
	return c.cert.SerialNumber.Cmp(x.cert.SerialNumber), true
}

// CertificateChain is an ordered list of certificates, leaf first.
type CertificateChain struct {
	value.Base
	certs []*Certificate
}

// NewCertificateChain returns a chain of certs.
func NewCertificateChain(src value.Source, certs ...*Certificate) *CertificateChain {
	cp := make([]*Certificate, len(certs))
	copy(cp, certs)
	return &CertificateChain{Base: value.NewBase(src), certs: cp}
}

// Certificates returns the chain, leaf first.
func (c *CertificateChain) Certificates() []*Certificate { return c.certs }

// Leaf returns the first certificate, or nil for an empty chain.
func (c *CertificateChain) Leaf() *Certificate {
	if len(c.certs) == 0 {
		return nil
	}
	return c.certs[0]
}

// Members implements value.Container.
func (c *CertificateChain) Members() []value.Value {
	out := make([]value.Value, len(c.certs))
	for i, cert := range c.certs {
		out[i] = cert
	}
	return out
}

func (c *CertificateChain) Kind() value.Kind { return value.KindCertificateChain }

func (c *CertificateChain) Describe() string {
	if leaf := c.Leaf(); leaf != nil {
		return fmt.Sprintf("%s [%d] (%s)", value.DefaultDescribe(c), len(c.certs), leaf.cert.Subject)
	}
	return value.DefaultDescribe(c) + " [0]"
}

func (c *CertificateChain) Properties() *value.Properties {
	return c.Memo(func(p *value.Properties) {
		src := c.Source()
		p.Set("size", value.NewInt(src.Derive("size"), int64(len(c.certs))))
		if len(c.certs) > 0 {
			p.Set("leaf", c.certs[0])
			p.Set("root", c.certs[len(c.certs)-1])
		}
		for i, cert := range c.certs {
			p.Set(fmt.Sprint(i), cert)
		}
	})
}

func (c *CertificateChain) Equal(other value.Value) bool {
	x, ok := other.(*CertificateChain)
	if !ok || len(x.certs) != len(c.certs) {
		return false
	}
	for i := range c.certs {
		if !c.certs[i].Equal(x.certs[i]) {
			return false
		}
	}
	return true
}

// EqualString matches the leaf certificate.
func (c *CertificateChain) EqualString(s string) bool {
	leaf := c.Leaf()
	return leaf != nil && leaf.EqualString(s)
}

// Encode writes the concatenated PEM blocks.
func (c *CertificateChain) Encode(w io.Writer) error {
	for _, cert := range c.certs {
		if err := cert.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func stringSequence(src value.Source, items []string) *value.Sequence {
	seq := value.NewSequence(src)
	for _, s := range items {
		seq.Append(value.NewString(src, s))
	}
	return seq
}

var keyUsageBits = []struct {
	bit  x509.KeyUsage
	name string
}{
	{x509.KeyUsageDigitalSignature, "digital-signature"},
	{x509.KeyUsageContentCommitment, "content-commitment"},
	{x509.KeyUsageKeyEncipherment, "key-encipherment"},
	{x509.KeyUsageDataEncipherment, "data-encipherment"},
	{x509.KeyUsageKeyAgreement, "key-agreement"},
	{x509.KeyUsageCertSign, "cert-sign"},
	{x509.KeyUsageCRLSign, "crl-sign"},
	{x509.KeyUsageEncipherOnly, "encipher-only"},
	{x509.KeyUsageDecipherOnly, "decipher-only"},
}

func keyUsageNames(ku x509.KeyUsage) []string {
	var out []string
	for _, b := range keyUsageBits {
		if ku&b.bit != 0 {
			out = append(out, b.name)
		}
	}
	return out
}

var extKeyUsageLabels = map[x509.ExtKeyUsage]string{
	x509.ExtKeyUsageAny:             "any",
	x509.ExtKeyUsageServerAuth:      "server-auth",
	x509.ExtKeyUsageClientAuth:      "client-auth",
	x509.ExtKeyUsageCodeSigning:     "code-signing",
	x509.ExtKeyUsageEmailProtection: "email-protection",
	x509.ExtKeyUsageTimeStamping:    "time-stamping",
	x509.ExtKeyUsageOCSPSigning:     "ocsp-signing",
}

func extKeyUsageNames(usages []x509.ExtKeyUsage) []string {
	var out []string
	for _, u := range usages {
		if name, ok := extKeyUsageLabels[u]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("unknown-%d", u))
		}
	}
	return out
}
