/*
Copyright © 2025 Logicos Software

names.go implements distinguished names, OIDs, algorithms and ASN.1 blobs.
*/
package pki

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"pkipipe/internal/value"
)

// oidNames maps well-known object identifiers to short names.
var oidNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.4":                    "SN",
	"2.5.4.5":                    "serialNumber",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "street",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.17":                   "postalCode",
	"0.9.2342.19200300.100.1.25": "DC",
	"0.9.2342.19200300.100.1.1":  "UID",
	"1.2.840.113549.1.9.1":       "emailAddress",

	"1.2.840.113549.1.1.1":  "rsaEncryption",
	"1.2.840.113549.1.1.5":  "sha1WithRSAEncryption",
	"1.2.840.113549.1.1.10": "rsassa-pss",
	"1.2.840.113549.1.1.11": "sha256WithRSAEncryption",
	"1.2.840.113549.1.1.12": "sha384WithRSAEncryption",
	"1.2.840.113549.1.1.13": "sha512WithRSAEncryption",
	"1.2.840.10045.2.1":     "ecPublicKey",
	"1.2.840.10045.4.3.2":   "ecdsa-with-SHA256",
	"1.2.840.10045.4.3.3":   "ecdsa-with-SHA384",
	"1.2.840.10045.4.3.4":   "ecdsa-with-SHA512",
	"1.3.101.112":           "Ed25519",

	"2.5.29.14": "subjectKeyIdentifier",
	"2.5.29.15": "keyUsage",
	"2.5.29.17": "subjectAltName",
	"2.5.29.19": "basicConstraints",
	"2.5.29.31": "cRLDistributionPoints",
	"2.5.29.32": "certificatePolicies",
	"2.5.29.35": "authorityKeyIdentifier",
	"2.5.29.37": "extKeyUsage",

	"1.3.6.1.5.5.7.1.1":     "authorityInfoAccess",
	"1.3.6.1.4.1.41482.3.3": "yubicoFirmwareVersion",
	"1.3.6.1.4.1.41482.3.7": "yubicoSerialNumber",
}

// OIDName returns the short name of a dotted object identifier, or "" when
// it is not well known.
func OIDName(dotted string) string {
	return oidNames[dotted]
}

// OID is an ASN.1 object identifier.
type OID struct {
	value.Base
	oid asn1.ObjectIdentifier
}

// NewOID returns an OID value.
func NewOID(src value.Source, oid asn1.ObjectIdentifier) *OID {
	return &OID{Base: value.NewBase(src), oid: oid}
}

// Identifier returns the object identifier.
func (o *OID) Identifier() asn1.ObjectIdentifier { return o.oid }

func (o *OID) Kind() value.Kind { return value.KindOID }

func (o *OID) Describe() string {
	if name := OIDName(o.oid.String()); name != "" {
		return fmt.Sprintf("%s (%s)", o.oid, name)
	}
	return o.oid.String()
}

func (o *OID) Properties() *value.Properties {
	return o.Memo(func(p *value.Properties) {
		src := o.Source()
		p.Set("dotted", value.NewString(src.Derive("dotted"), o.oid.String()))
		if name := OIDName(o.oid.String()); name != "" {
			p.Set("name", value.NewString(src.Derive("name"), name))
		}
	})
}

func (o *OID) Equal(other value.Value) bool {
	x, ok := other.(*OID)
	return ok && x.oid.Equal(o.oid)
}

// EqualString accepts the dotted form or the short name.
func (o *OID) EqualString(s string) bool {
	s = strings.TrimSpace(s)
	if s == o.oid.String() {
		return true
	}
	name := OIDName(o.oid.String())
	return name != "" && strings.EqualFold(name, s)
}

func (o *OID) Encode(w io.Writer) error {
	_, err := io.WriteString(w, o.oid.String())
	return err
}

// Algorithm names a signature or public key algorithm.
type Algorithm struct {
	value.Base
	name string
}

// NewAlgorithm returns an algorithm value.
func NewAlgorithm(src value.Source, name string) *Algorithm {
	return &Algorithm{Base: value.NewBase(src), name: name}
}

// Name returns the algorithm name.
func (a *Algorithm) Name() string { return a.name }

func (a *Algorithm) Kind() value.Kind { return value.KindAlgorithm }

func (a *Algorithm) Describe() string { return a.name }

func (a *Algorithm) Properties() *value.Properties {
	return a.Memo(func(p *value.Properties) {
		p.Set("name", value.NewString(a.Source().Derive("name"), a.name))
	})
}

func (a *Algorithm) Equal(other value.Value) bool {
	x, ok := other.(*Algorithm)
	return ok && strings.EqualFold(x.name, a.name)
}

func (a *Algorithm) EqualString(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), a.name)
}

func (a *Algorithm) Encode(w io.Writer) error {
	_, err := io.WriteString(w, a.name)
	return err
}

// ASN1 is a raw DER blob.
type ASN1 struct {
	value.Base
	der []byte
}

// NewASN1 returns a DER blob value.
func NewASN1(src value.Source, der []byte) *ASN1 {
	return &ASN1{Base: value.NewBase(src), der: der}
}

// Bytes returns the DER encoding.
func (a *ASN1) Bytes() []byte { return a.der }

func (a *ASN1) Kind() value.Kind { return value.KindASN1 }

func (a *ASN1) Describe() string {
	return fmt.Sprintf("%s (%d bytes)", value.DefaultDescribe(a), len(a.der))
}

func (a *ASN1) Properties() *value.Properties {
	return a.Memo(func(p *value.Properties) {
		src := a.Source()
		p.Set("size", value.NewInt(src.Derive("size"), int64(len(a.der))))
		var raw asn1.RawValue
		if _, err := asn1.Unmarshal(a.der, &raw); err != nil {
			p.Set("tag", value.NewFailure(src.Derive("tag"), err))
			return
		}
		p.Set("class", value.NewInt(src.Derive("class"), int64(raw.Class)))
		p.Set("tag", value.NewInt(src.Derive("tag"), int64(raw.Tag)))
		p.Set("constructed", value.NewBoolean(src.Derive("constructed"), raw.IsCompound))
	})
}

func (a *ASN1) Equal(other value.Value) bool {
	x, ok := other.(*ASN1)
	return ok && string(x.der) == string(a.der)
}

// EqualString compares against the hex encoding.
func (a *ASN1) EqualString(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), hex.EncodeToString(a.der))
}

func (a *ASN1) Encode(w io.Writer) error {
	_, err := w.Write(a.der)
	return err
}

// DistinguishedName is an X.500 name.
type DistinguishedName struct {
	value.Base
	rdns pkix.RDNSequence
}

// NewDistinguishedName returns a DN value for name.
func NewDistinguishedName(src value.Source, name pkix.Name) *DistinguishedName {
	return &DistinguishedName{Base: value.NewBase(src), rdns: name.ToRDNSequence()}
}

// NewDistinguishedNameRaw decodes a DER encoded name, keeping the original
// attribute order.
func NewDistinguishedNameRaw(src value.Source, der []byte) (*DistinguishedName, error) {
	var rdns pkix.RDNSequence
	if _, err := asn1.Unmarshal(der, &rdns); err != nil {
		return nil, err
	}
	return &DistinguishedName{Base: value.NewBase(src), rdns: rdns}, nil
}

// String renders the name in RFC 2253 order.
func (d *DistinguishedName) String() string {
	return d.rdns.String()
}

// Components returns the attributes in encoding order.
func (d *DistinguishedName) Components() []*DNComponent {
	var out []*DNComponent
	for _, rdn := range d.rdns {
		for _, atv := range rdn {
			out = append(out, &DNComponent{
				Base:  value.NewBase(d.Source().Derive("component")),
				oid:   atv.Type,
				value: fmt.Sprint(atv.Value),
			})
		}
	}
	return out
}

func (d *DistinguishedName) Kind() value.Kind { return value.KindDistinguishedName }

func (d *DistinguishedName) Describe() string { return d.String() }

// Properties maps short attribute names to their values. Repeated
// attributes become sequences.
func (d *DistinguishedName) Properties() *value.Properties {
	return d.Memo(func(p *value.Properties) {
		src := d.Source()
		p.Set("string", value.NewString(src.Derive("string"), d.String()))
		comps := d.Components()
		seq := value.NewSequence(src.Derive("components"))
		byName := make(map[string][]value.Value)
		var order []string
		for _, c := range comps {
			seq.Append(c)
			name := c.Name()
			if _, ok := byName[name]; !ok {
				order = append(order, name)
			}
			byName[name] = append(byName[name], value.NewString(src.Derive(name), c.value))
		}
		p.Set("components", seq)
		for _, name := range order {
			vals := byName[name]
			if len(vals) == 1 {
				p.Set(name, vals[0])
				continue
			}
			p.Set(name, value.NewSequence(src.Derive(name), vals...))
		}
	})
}

func (d *DistinguishedName) Equal(other value.Value) bool {
	x, ok := other.(*DistinguishedName)
	return ok && x.String() == d.String()
}

// EqualString compares case-insensitively, ignoring blanks after commas.
func (d *DistinguishedName) EqualString(s string) bool {
	return strings.EqualFold(normalizeDN(s), normalizeDN(d.String()))
}

func normalizeDN(s string) string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}

func (d *DistinguishedName) Encode(w io.Writer) error {
	_, err := io.WriteString(w, d.String())
	return err
}

// DNComponent is one attribute of a distinguished name.
type DNComponent struct {
	value.Base
	oid   asn1.ObjectIdentifier
	value string
}

// Name returns the short attribute name, or the dotted OID.
func (c *DNComponent) Name() string {
	if name := OIDName(c.oid.String()); name != "" {
		return name
	}
	return c.oid.String()
}

// Value returns the attribute value.
func (c *DNComponent) Value() string { return c.value }

func (c *DNComponent) Kind() value.Kind { return value.KindDNComponent }

func (c *DNComponent) Describe() string { return c.Name() + "=" + c.value }

func (c *DNComponent) Properties() *value.Properties {
	return c.Memo(func(p *value.Properties) {
		src := c.Source()
		p.Set("name", value.NewString(src.Derive("name"), c.Name()))
		p.Set("oid", NewOID(src.Derive("oid"), c.oid))
		p.Set("value", value.NewString(src.Derive("value"), c.value))
	})
}

func (c *DNComponent) Equal(other value.Value) bool {
	x, ok := other.(*DNComponent)
	return ok && x.oid.Equal(c.oid) && x.value == c.value
}

// EqualString accepts the bare value or "NAME=value".
func (c *DNComponent) EqualString(s string) bool {
	s = strings.TrimSpace(s)
	if s == c.value {
		return true
	}
	name, val, ok := strings.Cut(s, "=")
	return ok && strings.EqualFold(strings.TrimSpace(name), c.Name()) && strings.TrimSpace(val) == c.value
}

func (c *DNComponent) Encode(w io.Writer) error {
	_, err := io.WriteString(w, c.Describe())
	return err
}
