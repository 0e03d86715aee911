/*
Copyright © 2025 Logicos Software

verify.go checks signatures, validity periods and key matches.
*/
package pki

import (
	"bytes"
	"fmt"
	"time"

	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

// Verify checks v at time now:
//   - certificate: validity period, and its signature when self-issued
//   - chain: each certificate is signed by the next one, all are valid
//   - key pair: the keys match and the certificates verify
//   - store and store entry: every contained value
func Verify(v value.Value, now time.Time) error {
	switch x := v.(type) {
	case *Certificate:
		return verifyCertificate(x, now)
	case *CertificateChain:
		return verifyChain(x.certs, now)
	case *KeyPair:
		pub, _ := publicKeyOf(x.public)
		if !samePublicKey(x.priv.key.Public(), pub) {
			return fmt.Errorf("private key does not match %s", x.public.Describe())
		}
		if chain := x.Chain(); len(chain) > 0 {
			return verifyChain(chain, now)
		}
		return nil
	case *StoreEntry:
		if err := Verify(x.val, now); err != nil {
			return fmt.Errorf("entry %q: %w", x.alias, err)
		}
		return nil
	case *Store:
		for _, e := range x.entries {
			if err := Verify(e, now); err != nil {
				return err
			}
		}
		return nil
	}
	return errs.InvalidTarget("verify", v.Describe())
}

// VerifyIssued checks that cert carries a valid signature of issuer. Both
// arguments convert to certificates.
func VerifyIssued(cert, issuer value.Value) error {
	c, ok := value.As(cert, value.KindCertificate)
	if !ok {
		return errs.TypeConversion(cert.Describe(), value.KindCertificate.String())
	}
	i, ok := value.As(issuer, value.KindCertificate)
	if !ok {
		return errs.TypeConversion(issuer.Describe(), value.KindCertificate.String())
	}
	child, parent := c.(*Certificate), i.(*Certificate)
	if err := child.cert.CheckSignatureFrom(parent.cert); err != nil {
		return fmt.Errorf("%s is not signed by %s: %w", child.cert.Subject, parent.cert.Subject, err)
	}
	return nil
}

func verifyCertificate(c *Certificate, now time.Time) error {
	cert := c.cert
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("%s is not valid before %s", cert.Subject, cert.NotBefore.UTC().Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("%s expired at %s", cert.Subject, cert.NotAfter.UTC().Format(time.RFC3339))
	}
	if bytes.Equal(cert.RawSubject, cert.RawIssuer) {
		if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
			return fmt.Errorf("self-signature of %s: %w", cert.Subject, err)
		}
	}
	return nil
}

func verifyChain(certs []*Certificate, now time.Time) error {
	if len(certs) == 0 {
		return fmt.Errorf("empty certificate chain")
	}
	for i, c := range certs {
		if err := verifyCertificate(c, now); err != nil {
			return err
		}
		if i+1 < len(certs) {
			if err := c.cert.CheckSignatureFrom(certs[i+1].cert); err != nil {
				return fmt.Errorf("%s is not signed by %s: %w", c.cert.Subject, certs[i+1].cert.Subject, err)
			}
		}
	}
	return nil
}
