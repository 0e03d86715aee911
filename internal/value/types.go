/*
Copyright © 2025 Logicos Software

types.go holds the registry of type names used by as and select.
*/
package value

import (
	"fmt"
	"sort"
	"strings"
)

// Shape names the backing representation of a registered type.
type Shape int

const (
	ShapeAbstract Shape = iota
	ShapeScalar
	ShapeStructured
	ShapeCrypto
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeStructured:
		return "structured"
	case ShapeCrypto:
		return "crypto"
	default:
		return "abstract"
	}
}

// TypeInfo is one entry of the type registry.
type TypeInfo struct {
	Name        string
	Aliases     []string
	Kind        Kind
	Shape       Shape
	Description string
}

// typeTable is the static source of the registry. Hyphenated names also
// register their underscore and concatenated spellings.
var typeTable = []TypeInfo{
	{Name: "string", Aliases: []string{"str", "text"}, Kind: KindString, Shape: ShapeScalar, Description: "text"},
	{Name: "number", Aliases: []string{"num", "decimal"}, Kind: KindNumber, Shape: ShapeScalar, Description: "arbitrary-precision decimal"},
	{Name: "boolean", Aliases: []string{"bool"}, Kind: KindBoolean, Shape: ShapeScalar, Description: "true or false"},
	{Name: "date", Aliases: []string{"time", "date-time"}, Kind: KindDate, Shape: ShapeScalar, Description: "point in time"},
	{Name: "null", Aliases: []string{"nil", "none"}, Kind: KindNull, Shape: ShapeScalar, Description: "absent value"},
	{Name: "sequence", Aliases: []string{"seq", "list"}, Kind: KindSequence, Shape: ShapeStructured, Description: "ordered list of values"},
	{Name: "record", Aliases: []string{"map"}, Kind: KindRecord, Shape: ShapeStructured, Description: "ordered string-keyed values"},
	{Name: "result", Aliases: []string{"status"}, Kind: KindResult, Shape: ShapeStructured, Description: "success or failure of an operation"},
	{Name: "certificate", Aliases: []string{"cert", "x509"}, Kind: KindCertificate, Shape: ShapeCrypto, Description: "X.509 certificate"},
	{Name: "certificate-chain", Aliases: []string{"chain", "cert-chain"}, Kind: KindCertificateChain, Shape: ShapeCrypto, Description: "ordered certificates, leaf first"},
	{Name: "key-pair", Aliases: []string{"pair"}, Kind: KindKeyPair, Shape: ShapeCrypto, Description: "private key with its public credential"},
	{Name: "private-key", Aliases: []string{"private", "priv-key", "private-credential"}, Kind: KindPrivateKey, Shape: ShapeCrypto, Description: "private key"},
	{Name: "public-key", Aliases: []string{"public", "pub-key", "public-credential"}, Kind: KindPublicKey, Shape: ShapeCrypto, Description: "public key"},
	{Name: "store", Aliases: []string{"keystore", "key-store"}, Kind: KindStore, Shape: ShapeCrypto, Description: "PKCS#12, JKS or PEM key store"},
	{Name: "store-entry", Aliases: []string{"entry"}, Kind: KindStoreEntry, Shape: ShapeCrypto, Description: "named key store entry"},
	{Name: "encryption-info", Aliases: []string{"encryption"}, Kind: KindEncryptionInfo, Shape: ShapeCrypto, Description: "password protection metadata"},
	{Name: "algorithm", Aliases: []string{"alg"}, Kind: KindAlgorithm, Shape: ShapeCrypto, Description: "signature or key algorithm"},
	{Name: "oid", Aliases: []string{"object-identifier"}, Kind: KindOID, Shape: ShapeCrypto, Description: "ASN.1 object identifier"},
	{Name: "asn1", Aliases: []string{"asn.1", "der"}, Kind: KindASN1, Shape: ShapeCrypto, Description: "raw ASN.1 blob"},
	{Name: "distinguished-name", Aliases: []string{"dn", "name"}, Kind: KindDistinguishedName, Shape: ShapeCrypto, Description: "X.500 distinguished name"},
	{Name: "dn-component", Aliases: []string{"rdn", "attribute"}, Kind: KindDNComponent, Shape: ShapeCrypto, Description: "one attribute of a distinguished name"},
	{Name: "object", Aliases: []string{"any", "value"}, Kind: KindObject, Shape: ShapeAbstract, Description: "any value"},
	{Name: "scalar", Kind: KindScalar, Shape: ShapeAbstract, Description: "string, number, boolean, date or null"},
	{Name: "key", Aliases: []string{"credential"}, Kind: KindKey, Shape: ShapeAbstract, Description: "private or public key"},
	{Name: "encrypted", Aliases: []string{"encrypted-object"}, Kind: KindEncrypted, Shape: ShapeAbstract, Description: "value carrying password protection"},
}

var (
	typesByName map[string]*TypeInfo
	typesByKind map[Kind]*TypeInfo
)

func init() {
	typesByName = make(map[string]*TypeInfo)
	typesByKind = make(map[Kind]*TypeInfo)
	for i := range typeTable {
		t := &typeTable[i]
		if _, dup := typesByKind[t.Kind]; dup {
			panic(fmt.Sprintf("value: kind %s registered twice", t.Kind))
		}
		typesByKind[t.Kind] = t
		for _, name := range spellings(t) {
			if prev, dup := typesByName[name]; dup && prev != t {
				panic(fmt.Sprintf("value: type name %q registered for %s and %s", name, prev.Name, t.Name))
			}
			typesByName[name] = t
		}
	}
}

// spellings expands the canonical name and aliases into every accepted
// lower-case spelling.
func spellings(t *TypeInfo) []string {
	var out []string
	for _, n := range append([]string{t.Name}, t.Aliases...) {
		n = strings.ToLower(n)
		out = append(out, n)
		if strings.Contains(n, "-") {
			out = append(out, strings.ReplaceAll(n, "-", "_"), strings.ReplaceAll(n, "-", ""))
		}
	}
	return out
}

// LookupType finds a type by any of its spellings, ignoring case.
func LookupType(name string) (TypeInfo, bool) {
	t, ok := typesByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return TypeInfo{}, false
	}
	return *t, true
}

// TypeOf returns the registry entry of a kind.
func TypeOf(k Kind) (TypeInfo, bool) {
	t, ok := typesByKind[k]
	if !ok {
		return TypeInfo{}, false
	}
	return *t, true
}

// TypeNames returns every accepted spelling, sorted.
func TypeNames() []string {
	out := make([]string, 0, len(typesByName))
	for n := range typesByName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Types returns the registry entries in table order.
func Types() []TypeInfo {
	out := make([]TypeInfo, len(typeTable))
	copy(out, typeTable)
	return out
}
